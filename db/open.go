// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	Name   string
	Driver string
	// ForUpdate is appended to row reads that must hold a write lock
	// until the transaction ends. Empty when the engine serializes writers.
	ForUpdate string
}

var (
	Postgres = Dialect{Name: "postgres", Driver: "postgres", ForUpdate: " FOR UPDATE"}
	PGX      = Dialect{Name: "pgx", Driver: "pgx", ForUpdate: " FOR UPDATE"}
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite"}
)

// DialectFor resolves a DATABASE_TYPE value.
func DialectFor(kind string) (Dialect, error) {
	switch kind {
	case "postgres", "postgresql":
		return Postgres, nil
	case "pgx":
		return PGX, nil
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database type: %s", kind)
	}
}

// Open connects to the database and verifies the connection.
func Open(kind, url string) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(kind)
	if err != nil {
		return nil, Dialect{}, err
	}

	if dialect.Name == SQLite.Name {
		url = SQLiteDSN(url)
	}

	conn, err := sql.Open(dialect.Driver, url)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("open %s: %w", dialect.Name, err)
	}

	if dialect.Name == SQLite.Name {
		// One writer at a time; also keeps an in-memory database alive
		// for the lifetime of the pool.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, Dialect{}, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	return conn, dialect, nil
}

// SQLiteDSN adds foreign_keys(1) to a modernc.org/sqlite DSN so every
// connection the pool opens enforces cascades.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
