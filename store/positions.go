// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/sequence"
)

// Positions are ranked within their movement.
type Positions struct {
	*sequence.Collection[string, models.Position]
}

func NewPositions(conn *sql.DB, dialect db.Dialect, locks *sequence.Locker) *Positions {
	table := sequence.Table[string]{
		Name:         "positions",
		GroupColumns: []string{"movement_id"},
		GroupArgs:    func(movementID string) []any { return []any{movementID} },
		// The robot row is locked so the servo total read by Validate
		// cannot change before commit.
		Parent:     "SELECT id FROM robots WHERE id = (SELECT robot_id FROM movements WHERE id = $1)",
		ParentArgs: func(movementID string) []any { return []any{movementID} },
		LockKey:    func(movementID string) string { return "movement:" + movementID },
		Describe:   func(movementID string) string { return "movement " + movementID },
	}
	store := sequence.NewStore(conn, dialect, locks, table)
	return &Positions{sequence.NewCollection[string, models.Position]("position", store, positionKind{})}
}

type positionKind struct{}

const positionColumns = `id, movement_id, delay_ms, angles, sequence`

func scanPosition(row interface{ Scan(...any) error }) (models.Position, error) {
	var p models.Position
	var angles string
	if err := row.Scan(&p.ID, &p.MovementID, &p.Delay, &angles, &p.Sequence); err != nil {
		return p, err
	}
	var err error
	p.Angles, err = decodeAngles(angles)
	return p, err
}

func (positionKind) Key(p models.Position) string { return p.MovementID }

func (positionKind) Get(ctx context.Context, q sequence.Querier, id string) (models.Position, error) {
	p, err := scanPosition(q.QueryRowContext(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("%w: position %s", models.ErrNotFound, id)
	}
	return p, err
}

func (positionKind) List(ctx context.Context, q sequence.Querier, movementID string) ([]models.Position, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+positionColumns+` FROM positions
		WHERE movement_id = $1
		ORDER BY sequence
	`, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Validate checks ranges, the number of angles against the robot's servos,
// and the per-movement cap on create.
func (positionKind) Validate(ctx context.Context, g *sequence.Group[string], p models.Position, excludeID string) error {
	if excludeID == "" {
		n, err := g.Count(ctx)
		if err != nil {
			return err
		}
		if n >= models.MaxPositionsPerMovement {
			return fmt.Errorf("%w: a movement can have at most %d positions", models.ErrConflict, models.MaxPositionsPerMovement)
		}
	}

	var servos int
	err := g.Tx().QueryRowContext(ctx, `
		SELECT COALESCE(SUM(sg.num_servos), 0)
		FROM servo_groups sg
		JOIN movements m ON m.robot_id = sg.robot_id
		WHERE m.id = $1
	`, g.Key()).Scan(&servos)
	if err != nil {
		return fmt.Errorf("sum servos: %w", err)
	}

	return p.Snapshot().Validate(servos)
}

func (k positionKind) Insert(ctx context.Context, g *sequence.Group[string], p models.Position, seq int) (models.Position, error) {
	id, err := newID()
	if err != nil {
		return p, err
	}
	angles, err := encodeAngles(p.Angles)
	if err != nil {
		return p, err
	}

	_, err = g.Tx().ExecContext(ctx, `
		INSERT INTO positions (id, movement_id, delay_ms, angles, sequence)
		VALUES ($1, $2, $3, $4, $5)
	`, id, g.Key(), p.Delay, angles, seq)
	if err != nil {
		return p, fmt.Errorf("insert position: %w", err)
	}

	return k.Get(ctx, g.Tx(), id)
}

func (k positionKind) Update(ctx context.Context, g *sequence.Group[string], id string, p models.Position) (models.Position, error) {
	angles, err := encodeAngles(p.Angles)
	if err != nil {
		return p, err
	}

	_, err = g.Tx().ExecContext(ctx, `
		UPDATE positions SET delay_ms = $1, angles = $2 WHERE id = $3
	`, p.Delay, angles, id)
	if err != nil {
		return p, fmt.Errorf("update position: %w", err)
	}

	return k.Get(ctx, g.Tx(), id)
}
