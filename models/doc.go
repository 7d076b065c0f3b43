// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Robot: owned by a user, addressed on the broker by its unique_uid
  - ServoGroup: servos mounted in one column of a robot, ranked by sequence
  - Movement: named animation of a robot, optionally pinned to a grid cell
  - Position: one pose of a movement, ranked by sequence
  - PositionSnapshot: {delay, angles} pose stored on the robot itself

# Limits

	MaxRobotsPerUser        = 2
	MaxMovementsPerRobot    = 10
	MaxPositionsPerMovement = 16
	MaxServosPerRobot       = 24

Delays are 100-1000 ms, angles 0-180 degrees, grid cells x 1-9 and y 1-4.

# Errors

Every failure maps onto a small set of sentinels:

	ErrNotFound     - item, group or robot absent
	ErrConflict     - uniqueness or capacity violated
	ErrInvalidState - sequence already at its boundary
	ErrValidation   - malformed input
	ErrForbidden    - caller does not own the resource
	ErrEmptyInput   - nothing to translate into commands
	ErrDispatch     - publish failed or timed out
	ErrStorage      - database failure

Wrap attaches the operation, group and item id:

	return models.Wrap("position.move_up", "movement "+movementID, id, err)

errors.Is sees through the wrapper.
*/
package models
