// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/sequence"
)

// Movements are not ranked, but their caps and uniqueness are checked under
// the robot lock shared with servo groups.
type Movements struct {
	conn   *sql.DB
	robots *sequence.Store[string]
}

func NewMovements(conn *sql.DB, dialect db.Dialect, locks *sequence.Locker) *Movements {
	table := sequence.Table[string]{
		Name:         "movements",
		GroupColumns: []string{"robot_id"},
		GroupArgs:    func(robotID string) []any { return []any{robotID} },
		Parent:       "SELECT id FROM robots WHERE id = $1",
		ParentArgs:   func(robotID string) []any { return []any{robotID} },
		LockKey:      robotLockKey,
		Describe:     func(robotID string) string { return "robot " + robotID },
	}
	return &Movements{conn: conn, robots: sequence.NewStore(conn, dialect, locks, table)}
}

const movementColumns = `id, robot_id, name, coord_x, coord_y`

func scanMovement(row interface{ Scan(...any) error }) (models.Movement, error) {
	var m models.Movement
	var x, y sql.NullInt64
	if err := row.Scan(&m.ID, &m.RobotID, &m.Name, &x, &y); err != nil {
		return m, err
	}
	if x.Valid && y.Valid {
		m.Coordinates = &models.Coordinates{X: int(x.Int64), Y: int(y.Int64)}
	}
	return m, nil
}

func getMovement(ctx context.Context, q sequence.Querier, id string) (models.Movement, error) {
	m, err := scanMovement(q.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, fmt.Errorf("%w: movement %s", models.ErrNotFound, id)
	}
	return m, err
}

func (s *Movements) Get(ctx context.Context, id string) (models.Movement, error) {
	m, err := getMovement(ctx, s.conn, id)
	if err != nil {
		return m, models.Wrap("movement.get", "", id, err)
	}
	return m, nil
}

// ListByRobot returns a robot's movements by name.
func (s *Movements) ListByRobot(ctx context.Context, robotID string) ([]models.Movement, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE robot_id = $1
		ORDER BY name
	`, robotID)
	if err != nil {
		return nil, models.Wrap("movement.list", "robot "+robotID, "", err)
	}
	defer rows.Close()

	movements := []models.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, models.Wrap("movement.list", "robot "+robotID, "", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Wrap("movement.list", "robot "+robotID, "", err)
	}
	return movements, nil
}

func (s *Movements) Create(ctx context.Context, m models.Movement) (models.Movement, error) {
	var created models.Movement
	err := s.robots.Atomic(ctx, m.RobotID, func(g *sequence.Group[string]) error {
		n, err := g.Count(ctx)
		if err != nil {
			return err
		}
		if n >= models.MaxMovementsPerRobot {
			return fmt.Errorf("%w: a robot can have at most %d movements", models.ErrConflict, models.MaxMovementsPerRobot)
		}
		if err := validateMovement(ctx, g, m, ""); err != nil {
			return err
		}

		id, err := newID()
		if err != nil {
			return err
		}
		x, y := coordArgs(m.Coordinates)
		_, err = g.Tx().ExecContext(ctx, `
			INSERT INTO movements (id, robot_id, name, coord_x, coord_y)
			VALUES ($1, $2, $3, $4, $5)
		`, id, m.RobotID, m.Name, x, y)
		if err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}

		created, err = getMovement(ctx, g.Tx(), id)
		return err
	})
	if err != nil {
		return created, models.Wrap("movement.create", "robot "+m.RobotID, "", err)
	}
	return created, nil
}

// Update replaces name and coordinates. Keeping the current values is never
// a conflict.
func (s *Movements) Update(ctx context.Context, id string, m models.Movement) (models.Movement, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return current, err
	}

	var updated models.Movement
	err = s.robots.Atomic(ctx, current.RobotID, func(g *sequence.Group[string]) error {
		if err := validateMovement(ctx, g, m, id); err != nil {
			return err
		}

		x, y := coordArgs(m.Coordinates)
		res, err := g.Tx().ExecContext(ctx, `
			UPDATE movements SET name = $1, coord_x = $2, coord_y = $3 WHERE id = $4
		`, m.Name, x, y, id)
		if err != nil {
			return fmt.Errorf("update movement: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: movement %s", models.ErrNotFound, id)
		}

		updated, err = getMovement(ctx, g.Tx(), id)
		return err
	})
	if err != nil {
		return updated, models.Wrap("movement.update", "robot "+current.RobotID, id, err)
	}
	return updated, nil
}

// Delete removes a movement and, by cascade, its positions.
func (s *Movements) Delete(ctx context.Context, id string) (bool, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}

	err = s.robots.Atomic(ctx, current.RobotID, func(g *sequence.Group[string]) error {
		if _, err := g.Tx().ExecContext(ctx, `DELETE FROM movements WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, models.Wrap("movement.delete", "robot "+current.RobotID, id, err)
	}
	return true, nil
}

func validateMovement(ctx context.Context, g *sequence.Group[string], m models.Movement, excludeID string) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}

	dup, err := countWhere(ctx, g.Tx(), `
		SELECT COUNT(*) FROM movements WHERE robot_id = $1 AND name = $2 AND id <> $3
	`, g.Key(), m.Name, excludeID)
	if err != nil {
		return fmt.Errorf("check name: %w", err)
	}
	if dup > 0 {
		return fmt.Errorf("%w: movement name %q already exists on this robot", models.ErrConflict, m.Name)
	}

	if m.Coordinates == nil {
		return nil
	}
	if err := m.Coordinates.Validate(); err != nil {
		return err
	}
	dup, err = countWhere(ctx, g.Tx(), `
		SELECT COUNT(*) FROM movements
		WHERE robot_id = $1 AND coord_x = $2 AND coord_y = $3 AND id <> $4
	`, g.Key(), m.Coordinates.X, m.Coordinates.Y, excludeID)
	if err != nil {
		return fmt.Errorf("check coordinates: %w", err)
	}
	if dup > 0 {
		return fmt.Errorf("%w: coordinates (%d, %d) already used on this robot",
			models.ErrConflict, m.Coordinates.X, m.Coordinates.Y)
	}
	return nil
}

func coordArgs(c *models.Coordinates) (any, any) {
	if c == nil {
		return nil, nil
	}
	return c.X, c.Y
}
