// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open picks the driver from DATABASE_TYPE:

	conn, dialect, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

  - postgres: github.com/lib/pq
  - pgx: github.com/jackc/pgx/v5/stdlib
  - sqlite: modernc.org/sqlite (single connection, foreign_keys(1) in the DSN)

The returned Dialect tells the stores whether row locks need FOR UPDATE.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - robots: robots, their stored poses and broker status
  - servo_groups: servo groups ranked per (robot_id, col)
  - movements: named movements of a robot
  - positions: poses ranked per movement_id

# Relationships

	robots 1──* servo_groups
	robots 1──* movements
	movements 1──* positions

All foreign keys use ON DELETE CASCADE.

Sequences are not UNIQUE in the schema: a swap or a compaction passes
through states where two rows briefly share a value inside the transaction.
Density is kept by the sequence package holding the group lock.
*/
package db
