// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package command turns stored poses into robot commands and publishes them.

# Payload

Commands go to robot/{unique_uid}/access/positions as a JSON array, one
element per pose in sequence order:

	[{"delay":200,"angles":[10,20]},{"delay":300,"angles":[30,40]}]

# Dispatch

	d := command.NewDispatcher(publisher, command.Stores{...}, command.Config{PublishTimeout: 5 * time.Second})
	resp, err := d.ExecuteMovement(ctx, robotID, movementID)

Every send follows the same order: publish, then store the last command as
the robot's current position. When the publish fails or times out the
error wraps models.ErrDispatch and the current position keeps its old
value. Resending the same movement is safe.

Sends to one robot never interleave.

# Robot storage

SaveMovement, DeleteMovement, SaveInitialPosition and ClearStorage publish
to robot/{unique_uid}/access/storage/{action} and change nothing locally.
*/
package command
