// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store holds the repositories for robots and everything they own.

	s := store.New(conn, dialect)

	sg, err := s.ServoGroups.Create(ctx, models.ServoGroup{RobotID: id, Name: "arm", NumServos: 4, Column: models.ColumnLeft})
	m, err := s.Movements.Create(ctx, models.Movement{RobotID: id, Name: "wave"})
	p, err := s.Positions.Create(ctx, models.Position{MovementID: m.ID, Delay: 200, Angles: []int{90, 90, 90, 90}})
	p, err = s.Positions.MoveUp(ctx, p.ID)

Positions and ServoGroups are sequence.Collections; see that package for
the ordering guarantees.

# Limits

  - 2 robots per user, botnames unique across users
  - 10 movements per robot, names and grid coordinates unique per robot
  - 24 servos per robot across all servo groups, names unique per robot
  - 16 positions per movement, one angle per servo of the robot

Exceeding a limit or repeating a unique value is models.ErrConflict; a
value out of range is models.ErrValidation.

# Ownership

Repositories do not check who is calling. Handlers call Ownership first:

	if err := s.Ownership.Movement(ctx, userID, movementID); err != nil {
		// ErrNotFound or ErrForbidden
	}
*/
package store
