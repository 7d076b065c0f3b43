// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/servo-sync-project/servo-sync-api/auth"
	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/sequence"
)

// Store groups the repositories. They share one Locker so that every
// mutation scoped to a robot is serialized under the same key.
type Store struct {
	Robots      *Robots
	ServoGroups *ServoGroups
	Movements   *Movements
	Positions   *Positions
	Ownership   *Ownership

	// Locks is handed to the dispatcher so sends share the robot key.
	Locks *sequence.Locker
}

func New(conn *sql.DB, dialect db.Dialect) *Store {
	locks := sequence.NewLocker()
	return &Store{
		Robots:      NewRobots(conn, locks),
		ServoGroups: NewServoGroups(conn, dialect, locks),
		Movements:   NewMovements(conn, dialect, locks),
		Positions:   NewPositions(conn, dialect, locks),
		Ownership:   NewOwnership(conn),
		Locks:       locks,
	}
}

func robotLockKey(robotID string) string { return "robot:" + robotID }

func newID() (string, error) {
	return auth.GenerateID(16)
}

func encodeAngles(angles []int) (string, error) {
	if angles == nil {
		angles = []int{}
	}
	raw, err := json.Marshal(angles)
	if err != nil {
		return "", fmt.Errorf("encode angles: %w", err)
	}
	return string(raw), nil
}

func decodeAngles(raw string) ([]int, error) {
	var angles []int
	if err := json.Unmarshal([]byte(raw), &angles); err != nil {
		return nil, fmt.Errorf("decode angles: %w", err)
	}
	return angles, nil
}

func encodeSnapshot(snap models.PositionSnapshot) (string, error) {
	if snap.Angles == nil {
		snap.Angles = []int{}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode position: %w", err)
	}
	return string(raw), nil
}

func decodeSnapshot(raw sql.NullString) (*models.PositionSnapshot, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var snap models.PositionSnapshot
	if err := json.Unmarshal([]byte(raw.String), &snap); err != nil {
		return nil, fmt.Errorf("decode position: %w", err)
	}
	return &snap, nil
}

// totalServos sums num_servos over every servo group of a robot.
func totalServos(ctx context.Context, q sequence.Querier, robotID string) (int, error) {
	var total int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(num_servos), 0) FROM servo_groups WHERE robot_id = $1
	`, robotID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum servos: %w", err)
	}
	return total, nil
}

func countWhere(ctx context.Context, q sequence.Querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
