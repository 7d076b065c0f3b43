// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the servo-sync API server.

servo-sync stores how a user's robots are put together (servo groups laid
out in left, middle and right columns) and the movements they perform (an
ordered list of positions, each a delay and one angle per servo). It
drives the robots by publishing commands to an MQTT broker that the
robots subscribe to.

# Starting the Server

The server reads flags, then the environment, then an optional .env file:

	DATABASE_URL=servo.db JWT_SECRET=... BROKER_URL=tcp://localhost:1883 go run .

Or with flags:

	go run . -p 8000 -t pgx -d "postgres://..." -broker-url ssl://broker:8883

# Configuration

Required settings:

  - DATABASE_URL (-d): connection string (sqlite file, or postgres URL)
  - JWT_SECRET (-jwt-secret): HS256 secret shared with the account service
  - BROKER_URL (-broker-url): MQTT or Redis URL

Optional settings:

  - PORT (-p): Server port (default: 8000)
  - DATABASE_TYPE (-t): sqlite, postgres or pgx (default: sqlite)
  - BROKER_TYPE (-broker): mqtt or redis (default: mqtt)
  - PUBLISH_TIMEOUT, MAX_PAYLOAD_BYTES: command limits
  - LOG_LEVEL, LOG_FORMAT, LOG_FILE: logging

# Architecture

  - handlers: HTTP request handlers (robots, servo groups, movements, positions)
  - router: Route definitions using Go 1.22+ routing
  - middleware: bearer auth, CORS, logging, JSON and error helpers
  - store: robots and the ordered collections under them
  - sequence: dense 1..n ordering with per-group locking
  - command: translating positions into robot commands and publishing them
  - broker: MQTT and Redis pub/sub, robot presence
  - models: domain, request and response types and the error taxonomy
  - auth: ids, robot uids and JWT verification
  - db: connection and schema
  - logging: slog setup with optional rotating file
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
