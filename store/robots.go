// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/servo-sync-project/servo-sync-api/auth"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/sequence"
)

// botnameLock serializes robot creation and renames: botnames are unique
// across users and the per-user cap is counted in the same step.
const botnameLock = "robots"

type Robots struct {
	conn  *sql.DB
	locks *sequence.Locker
}

func NewRobots(conn *sql.DB, locks *sequence.Locker) *Robots {
	return &Robots{conn: conn, locks: locks}
}

const robotColumns = `id, unique_uid, botname, description, initial_position, current_position, is_connected_broker, user_id`

func scanRobot(row interface{ Scan(...any) error }) (models.Robot, error) {
	var r models.Robot
	var initial, current sql.NullString
	err := row.Scan(&r.ID, &r.UniqueUID, &r.Botname, &r.Description, &initial, &current, &r.IsConnectedBroker, &r.UserID)
	if err != nil {
		return r, err
	}
	if r.InitialPosition, err = decodeSnapshot(initial); err != nil {
		return r, err
	}
	r.CurrentPosition, err = decodeSnapshot(current)
	return r, err
}

func getRobot(ctx context.Context, q sequence.Querier, where, arg string) (models.Robot, error) {
	r, err := scanRobot(q.QueryRowContext(ctx, `SELECT `+robotColumns+` FROM robots WHERE `+where+` = $1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: robot %s", models.ErrNotFound, arg)
	}
	return r, err
}

func (s *Robots) Get(ctx context.Context, id string) (models.Robot, error) {
	r, err := getRobot(ctx, s.conn, "id", id)
	if err != nil {
		return r, models.Wrap("robot.get", "", id, err)
	}
	return r, nil
}

// GetByUID looks a robot up by the uid it uses on the broker.
func (s *Robots) GetByUID(ctx context.Context, uid string) (models.Robot, error) {
	r, err := getRobot(ctx, s.conn, "unique_uid", uid)
	if err != nil {
		return r, models.Wrap("robot.get_by_uid", "", uid, err)
	}
	return r, nil
}

func (s *Robots) ListByUser(ctx context.Context, userID string) ([]models.Robot, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+robotColumns+` FROM robots
		WHERE user_id = $1
		ORDER BY created_at, botname
	`, userID)
	if err != nil {
		return nil, models.Wrap("robot.list", "user "+userID, "", err)
	}
	defer rows.Close()

	robots := []models.Robot{}
	for rows.Next() {
		r, err := scanRobot(rows)
		if err != nil {
			return nil, models.Wrap("robot.list", "user "+userID, "", err)
		}
		robots = append(robots, r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Wrap("robot.list", "user "+userID, "", err)
	}
	return robots, nil
}

// Create registers a robot for userID with a fresh unique uid.
func (s *Robots) Create(ctx context.Context, userID, botname, description string) (models.Robot, error) {
	var created models.Robot
	err := s.withBotnames(ctx, func(tx *sql.Tx) error {
		if err := validateBotname(botname); err != nil {
			return err
		}

		owned, err := countWhere(ctx, tx, `SELECT COUNT(*) FROM robots WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("count robots: %w", err)
		}
		if owned >= models.MaxRobotsPerUser {
			return fmt.Errorf("%w: a user can have at most %d robots", models.ErrConflict, models.MaxRobotsPerUser)
		}
		if err := checkBotnameFree(ctx, tx, botname, ""); err != nil {
			return err
		}

		id, err := newID()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO robots (id, unique_uid, botname, description, user_id)
			VALUES ($1, $2, $3, $4, $5)
		`, id, auth.NewRobotUID(), botname, description, userID)
		if err != nil {
			return fmt.Errorf("insert robot: %w", err)
		}

		created, err = getRobot(ctx, tx, "id", id)
		return err
	})
	if err != nil {
		return created, models.Wrap("robot.create", "user "+userID, "", err)
	}
	return created, nil
}

// Update changes botname and description.
func (s *Robots) Update(ctx context.Context, id, botname, description string) (models.Robot, error) {
	var updated models.Robot
	err := s.withBotnames(ctx, func(tx *sql.Tx) error {
		if err := validateBotname(botname); err != nil {
			return err
		}
		if err := checkBotnameFree(ctx, tx, botname, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE robots SET botname = $1, description = $2 WHERE id = $3
		`, botname, description, id)
		if err != nil {
			return fmt.Errorf("update robot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: robot %s", models.ErrNotFound, id)
		}

		updated, err = getRobot(ctx, tx, "id", id)
		return err
	})
	if err != nil {
		return updated, models.Wrap("robot.update", "", id, err)
	}
	return updated, nil
}

// SetInitialPosition stores the pose the robot returns to. It must carry
// one angle per servo of the robot.
func (s *Robots) SetInitialPosition(ctx context.Context, id string, snap models.PositionSnapshot) (models.Robot, error) {
	// Servo groups change under the same key.
	unlock, err := s.locks.Lock(ctx, robotLockKey(id))
	if err != nil {
		return models.Robot{}, models.Wrap("robot.set_initial_position", "", id, err)
	}
	defer unlock()

	if _, err := s.Get(ctx, id); err != nil {
		return models.Robot{}, err
	}

	servos, err := totalServos(ctx, s.conn, id)
	if err != nil {
		return models.Robot{}, models.Wrap("robot.set_initial_position", "", id, err)
	}
	if err := snap.Validate(servos); err != nil {
		return models.Robot{}, models.Wrap("robot.set_initial_position", "", id, err)
	}

	if err := s.setSnapshot(ctx, "initial_position", id, snap); err != nil {
		return models.Robot{}, models.Wrap("robot.set_initial_position", "", id, err)
	}
	return s.Get(ctx, id)
}

// SetCurrentPosition records the last pose sent to the robot. Only the
// dispatcher calls it, after a successful publish.
func (s *Robots) SetCurrentPosition(ctx context.Context, id string, snap models.PositionSnapshot) error {
	return models.Wrap("robot.set_current_position", "", id, s.setSnapshot(ctx, "current_position", id, snap))
}

func (s *Robots) setSnapshot(ctx context.Context, column, id string, snap models.PositionSnapshot) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx, `UPDATE robots SET `+column+` = $1 WHERE id = $2`, raw, id)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: robot %s", models.ErrNotFound, id)
	}
	return nil
}

// SetConnected records the broker presence reported by the robot itself.
func (s *Robots) SetConnected(ctx context.Context, uid string, connected bool) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE robots SET is_connected_broker = $1 WHERE unique_uid = $2
	`, connected, uid)
	if err != nil {
		return models.Wrap("robot.set_connected", "", uid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Wrap("robot.set_connected", "", uid, fmt.Errorf("%w: robot %s", models.ErrNotFound, uid))
	}
	return nil
}

// Delete removes a robot with its servo groups, movements and positions.
func (s *Robots) Delete(ctx context.Context, id string) (bool, error) {
	unlock, err := s.locks.Lock(ctx, robotLockKey(id))
	if err != nil {
		return false, models.Wrap("robot.delete", "", id, err)
	}
	defer unlock()

	res, err := s.conn.ExecContext(ctx, `DELETE FROM robots WHERE id = $1`, id)
	if err != nil {
		return false, models.Wrap("robot.delete", "", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, models.Wrap("robot.delete", "", id, fmt.Errorf("%w: robot %s", models.ErrNotFound, id))
	}
	return true, nil
}

func (s *Robots) withBotnames(ctx context.Context, fn func(tx *sql.Tx) error) error {
	unlock, err := s.locks.Lock(ctx, botnameLock)
	if err != nil {
		return err
	}
	defer unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func validateBotname(botname string) error {
	if strings.TrimSpace(botname) == "" {
		return fmt.Errorf("%w: botname is required", models.ErrValidation)
	}
	return nil
}

func checkBotnameFree(ctx context.Context, tx *sql.Tx, botname, excludeID string) error {
	dup, err := countWhere(ctx, tx, `
		SELECT COUNT(*) FROM robots WHERE botname = $1 AND id <> $2
	`, botname, excludeID)
	if err != nil {
		return fmt.Errorf("check botname: %w", err)
	}
	if dup > 0 {
		return fmt.Errorf("%w: botname %q is already taken", models.ErrConflict, botname)
	}
	return nil
}
