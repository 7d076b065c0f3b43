// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8000)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: sqlite, postgres (lib/pq) or pgx (default: sqlite)
  - JWTSecret: HS256 secret shared with the account service (required)
  - BrokerType: mqtt or redis (default: mqtt)
  - BrokerURL: e.g. ssl://broker:8883 or redis://localhost:6379/0 (required)
  - MQTTClientID, MQTTUsername, MQTTPassword: broker credentials
  - PublishTimeout: how long a publish may take (default: 5s)
  - MaxPayloadBytes: largest message a robot accepts (default: 16384)
  - Log: level, format and optional rotating log file

# CLI Flags

	-env          Env file (default .env, missing is fine)
	-p            Server port
	-d            Database URL
	-t            Database type
	-broker       Broker type
	-broker-url   Broker URL
	-jwt-secret   JWT secret

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	BROKER_TYPE   → -broker
	BROKER_URL    → -broker-url
	JWT_SECRET    → -jwt-secret

and these are read from the environment only:

	MQTT_CLIENT_ID, MQTT_USERNAME, MQTT_PASSWORD
	PUBLISH_TIMEOUT, MAX_PAYLOAD_BYTES
	LOG_LEVEL, LOG_FORMAT, LOG_FILE
	LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS

CLI flags take precedence over environment variables, and the environment
takes precedence over the env file.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - JWT_SECRET must be provided
  - BROKER_URL must be provided
*/
package cliparse
