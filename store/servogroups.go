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

// ServoGroups are ranked within one column of a robot. All columns of a
// robot share its lock because the servo budget spans them.
type ServoGroups struct {
	*sequence.Collection[models.ServoGroupKey, models.ServoGroup]
	conn *sql.DB
}

func NewServoGroups(conn *sql.DB, dialect db.Dialect, locks *sequence.Locker) *ServoGroups {
	table := sequence.Table[models.ServoGroupKey]{
		Name:         "servo_groups",
		GroupColumns: []string{"robot_id", "col"},
		GroupArgs: func(k models.ServoGroupKey) []any {
			return []any{k.RobotID, string(k.Column)}
		},
		Parent:     "SELECT id FROM robots WHERE id = $1",
		ParentArgs: func(k models.ServoGroupKey) []any { return []any{k.RobotID} },
		LockKey:    func(k models.ServoGroupKey) string { return robotLockKey(k.RobotID) },
		Describe:   models.ServoGroupKey.String,
	}
	store := sequence.NewStore(conn, dialect, locks, table)
	return &ServoGroups{
		Collection: sequence.NewCollection[models.ServoGroupKey, models.ServoGroup]("servo_group", store, servoGroupKind{}),
		conn:       conn,
	}
}

// ListByRobot returns every servo group of a robot, by column then sequence.
func (s *ServoGroups) ListByRobot(ctx context.Context, robotID string) ([]models.ServoGroup, error) {
	groups, err := listServoGroups(ctx, s.conn, `
		SELECT `+servoGroupColumns+` FROM servo_groups
		WHERE robot_id = $1
		ORDER BY col, sequence
	`, robotID)
	if err != nil {
		return nil, models.Wrap("servo_group.list", "robot "+robotID, "", err)
	}
	return groups, nil
}

// TotalServos is the number of servos a robot drives, which is also the
// number of angles every pose of the robot carries.
func (s *ServoGroups) TotalServos(ctx context.Context, robotID string) (int, error) {
	total, err := totalServos(ctx, s.conn, robotID)
	if err != nil {
		return 0, models.Wrap("servo_group.total", "robot "+robotID, "", err)
	}
	return total, nil
}

type servoGroupKind struct{}

const servoGroupColumns = `id, robot_id, name, num_servos, col, sequence`

func scanServoGroup(row interface{ Scan(...any) error }) (models.ServoGroup, error) {
	var g models.ServoGroup
	var col string
	err := row.Scan(&g.ID, &g.RobotID, &g.Name, &g.NumServos, &col, &g.Sequence)
	g.Column = models.Column(col)
	return g, err
}

func listServoGroups(ctx context.Context, q sequence.Querier, query string, args ...any) ([]models.ServoGroup, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []models.ServoGroup{}
	for rows.Next() {
		g, err := scanServoGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (servoGroupKind) Key(g models.ServoGroup) models.ServoGroupKey {
	return models.ServoGroupKey{RobotID: g.RobotID, Column: g.Column}
}

func (servoGroupKind) Get(ctx context.Context, q sequence.Querier, id string) (models.ServoGroup, error) {
	g, err := scanServoGroup(q.QueryRowContext(ctx, `SELECT `+servoGroupColumns+` FROM servo_groups WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return g, fmt.Errorf("%w: servo group %s", models.ErrNotFound, id)
	}
	return g, err
}

func (servoGroupKind) List(ctx context.Context, q sequence.Querier, k models.ServoGroupKey) ([]models.ServoGroup, error) {
	return listServoGroups(ctx, q, `
		SELECT `+servoGroupColumns+` FROM servo_groups
		WHERE robot_id = $1 AND col = $2
		ORDER BY sequence
	`, k.RobotID, string(k.Column))
}

// Validate enforces a unique name per robot and the robot's servo budget,
// and keeps the servo total in line with the poses already stored.
func (servoGroupKind) Validate(ctx context.Context, g *sequence.Group[models.ServoGroupKey], sg models.ServoGroup, excludeID string) error {
	robotID := g.Key().RobotID

	if strings.TrimSpace(sg.Name) == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if sg.NumServos < 1 {
		return fmt.Errorf("%w: num_servos must be at least 1", models.ErrValidation)
	}
	if !g.Key().Column.Valid() {
		return fmt.Errorf("%w: column must be left, middle or right", models.ErrValidation)
	}

	dup, err := countWhere(ctx, g.Tx(), `
		SELECT COUNT(*) FROM servo_groups WHERE robot_id = $1 AND name = $2 AND id <> $3
	`, robotID, sg.Name, excludeID)
	if err != nil {
		return fmt.Errorf("check name: %w", err)
	}
	if dup > 0 {
		return fmt.Errorf("%w: servo group name %q already exists on this robot", models.ErrConflict, sg.Name)
	}

	others, err := countWhere(ctx, g.Tx(), `
		SELECT COALESCE(SUM(num_servos), 0) FROM servo_groups WHERE robot_id = $1 AND id <> $2
	`, robotID, excludeID)
	if err != nil {
		return fmt.Errorf("sum servos: %w", err)
	}
	if others+sg.NumServos > models.MaxServosPerRobot {
		return fmt.Errorf("%w: a robot can have at most %d servos, %d already assigned",
			models.ErrConflict, models.MaxServosPerRobot, others)
	}

	return posesFit(ctx, g.Tx(), robotID, others+sg.NumServos)
}

// ValidateDelete refuses to drop servos that stored poses still drive.
func (servoGroupKind) ValidateDelete(ctx context.Context, g *sequence.Group[models.ServoGroupKey], sg models.ServoGroup) error {
	total, err := totalServos(ctx, g.Tx(), sg.RobotID)
	if err != nil {
		return err
	}
	return posesFit(ctx, g.Tx(), sg.RobotID, total-sg.NumServos)
}

// posesFit fails with ErrConflict when the robot's initial position or any
// of its positions would not have exactly total angles. A robot without
// servos accepts any pose.
func posesFit(ctx context.Context, q sequence.Querier, robotID string, total int) error {
	if total == 0 {
		return nil
	}

	var raw sql.NullString
	if err := q.QueryRowContext(ctx, `SELECT initial_position FROM robots WHERE id = $1`, robotID).Scan(&raw); err != nil {
		return fmt.Errorf("read initial position: %w", err)
	}
	initial, err := decodeSnapshot(raw)
	if err != nil {
		return err
	}
	if initial != nil && len(initial.Angles) != total {
		return fmt.Errorf("%w: the initial position has %d angles but this change leaves %d servos",
			models.ErrConflict, len(initial.Angles), total)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT p.angles FROM positions p
		JOIN movements m ON m.id = p.movement_id
		WHERE m.robot_id = $1
	`, robotID)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}
	defer rows.Close()

	stale := 0
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return err
		}
		angles, err := decodeAngles(encoded)
		if err != nil {
			return err
		}
		if len(angles) != total {
			stale++
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if stale > 0 {
		return fmt.Errorf("%w: %d positions of this robot would not have one angle per servo (%d); update or delete them first",
			models.ErrConflict, stale, total)
	}
	return nil
}

func (k servoGroupKind) Insert(ctx context.Context, g *sequence.Group[models.ServoGroupKey], sg models.ServoGroup, seq int) (models.ServoGroup, error) {
	id, err := newID()
	if err != nil {
		return sg, err
	}

	key := g.Key()
	_, err = g.Tx().ExecContext(ctx, `
		INSERT INTO servo_groups (id, robot_id, name, num_servos, col, sequence)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, key.RobotID, sg.Name, sg.NumServos, string(key.Column), seq)
	if err != nil {
		return sg, fmt.Errorf("insert servo group: %w", err)
	}

	return k.Get(ctx, g.Tx(), id)
}

// Update renames and resizes; the column is fixed at creation.
func (k servoGroupKind) Update(ctx context.Context, g *sequence.Group[models.ServoGroupKey], id string, sg models.ServoGroup) (models.ServoGroup, error) {
	_, err := g.Tx().ExecContext(ctx, `
		UPDATE servo_groups SET name = $1, num_servos = $2 WHERE id = $3
	`, sg.Name, sg.NumServos, id)
	if err != nil {
		return sg, fmt.Errorf("update servo group: %w", err)
	}

	return k.Get(ctx, g.Tx(), id)
}
