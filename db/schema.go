// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropSchema removes every table, children first.
func DropSchema(db *sql.DB) error {
	for _, table := range []string{"positions", "movements", "servo_groups", "robots"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

// Statements are kept to the subset shared by PostgreSQL and SQLite.
var schema = []string{
	// Robots
	`CREATE TABLE IF NOT EXISTS robots (
    id TEXT PRIMARY KEY,
    unique_uid TEXT NOT NULL UNIQUE,
    botname TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    initial_position TEXT,
    current_position TEXT,
    is_connected_broker BOOLEAN NOT NULL DEFAULT FALSE,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_robot_user_id ON robots(user_id)`,

	// Servo groups, ranked per (robot, column)
	`CREATE TABLE IF NOT EXISTS servo_groups (
    id TEXT PRIMARY KEY,
    robot_id TEXT NOT NULL REFERENCES robots(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    num_servos INTEGER NOT NULL CHECK (num_servos > 0),
    col TEXT NOT NULL CHECK (col IN ('left', 'middle', 'right')),
    sequence INTEGER NOT NULL CHECK (sequence >= 1),
    UNIQUE (robot_id, name)
)`,
	`CREATE INDEX IF NOT EXISTS idx_servo_group_sequence ON servo_groups(robot_id, col, sequence)`,

	// Movements
	`CREATE TABLE IF NOT EXISTS movements (
    id TEXT PRIMARY KEY,
    robot_id TEXT NOT NULL REFERENCES robots(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    coord_x INTEGER CHECK (coord_x BETWEEN 1 AND 9),
    coord_y INTEGER CHECK (coord_y BETWEEN 1 AND 4),
    UNIQUE (robot_id, name),
    UNIQUE (robot_id, coord_x, coord_y)
)`,
	`CREATE INDEX IF NOT EXISTS idx_movement_robot_id ON movements(robot_id)`,

	// Positions, ranked per movement
	`CREATE TABLE IF NOT EXISTS positions (
    id TEXT PRIMARY KEY,
    movement_id TEXT NOT NULL REFERENCES movements(id) ON DELETE CASCADE,
    delay_ms INTEGER NOT NULL CHECK (delay_ms BETWEEN 100 AND 1000),
    angles TEXT NOT NULL,
    sequence INTEGER NOT NULL CHECK (sequence >= 1)
)`,
	`CREATE INDEX IF NOT EXISTS idx_position_sequence ON positions(movement_id, sequence)`,
}
