// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/servo-sync-project/servo-sync-api/models"
)

// Ownership answers whether a user may act on a resource. A missing
// resource is ErrNotFound, someone else's is ErrForbidden.
type Ownership struct {
	conn *sql.DB
}

func NewOwnership(conn *sql.DB) *Ownership {
	return &Ownership{conn: conn}
}

func (o *Ownership) Robot(ctx context.Context, userID, robotID string) error {
	return o.check(ctx, userID, "robot", robotID, `
		SELECT user_id FROM robots WHERE id = $1
	`)
}

func (o *Ownership) Movement(ctx context.Context, userID, movementID string) error {
	return o.check(ctx, userID, "movement", movementID, `
		SELECT r.user_id FROM movements m
		JOIN robots r ON r.id = m.robot_id
		WHERE m.id = $1
	`)
}

func (o *Ownership) Position(ctx context.Context, userID, positionID string) error {
	return o.check(ctx, userID, "position", positionID, `
		SELECT r.user_id FROM positions p
		JOIN movements m ON m.id = p.movement_id
		JOIN robots r ON r.id = m.robot_id
		WHERE p.id = $1
	`)
}

func (o *Ownership) ServoGroup(ctx context.Context, userID, servoGroupID string) error {
	return o.check(ctx, userID, "servo group", servoGroupID, `
		SELECT r.user_id FROM servo_groups sg
		JOIN robots r ON r.id = sg.robot_id
		WHERE sg.id = $1
	`)
}

func (o *Ownership) check(ctx context.Context, userID, what, id, query string) error {
	var owner string
	err := o.conn.QueryRowContext(ctx, query, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Wrap("ownership", "", id, fmt.Errorf("%w: %s %s", models.ErrNotFound, what, id))
	}
	if err != nil {
		return models.Wrap("ownership", "", id, err)
	}
	if owner != userID {
		return models.Wrap("ownership", "", id, fmt.Errorf("%w: %s belongs to another user", models.ErrForbidden, what))
	}
	return nil
}
