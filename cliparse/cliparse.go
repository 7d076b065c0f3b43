package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/servo-sync-project/servo-sync-api/logging"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	JWTSecret    string

	BrokerType      string
	BrokerURL       string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	PublishTimeout  time.Duration
	MaxPayloadBytes int

	Log logging.Config
}

// ParseFlags reads flags, then the env file and environment, then defaults
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	flags := flag.NewFlagSet("servo-sync-api", flag.ContinueOnError)

	flags.StringVar(&envFile, "env", ".env", "Env file loaded before reading the environment")

	// Network config (can be CLI args or env)
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	flags.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or pgx)")
	flags.StringVar(&cfg.BrokerType, "broker", "", "Broker type (mqtt or redis)")
	flags.StringVar(&cfg.BrokerURL, "broker-url", "", "Broker URL")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret (prefer env)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	// Existing environment variables win over the file.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 8000)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = envString("DATABASE_TYPE", "sqlite")
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	if cfg.BrokerType == "" {
		cfg.BrokerType = envString("BROKER_TYPE", "mqtt")
	}
	if cfg.BrokerType != "mqtt" && cfg.BrokerType != "redis" {
		return Config{}, fmt.Errorf("unsupported broker type: %s", cfg.BrokerType)
	}
	if cfg.BrokerURL == "" {
		cfg.BrokerURL = os.Getenv("BROKER_URL")
	}
	if cfg.BrokerURL == "" {
		return Config{}, errors.New("broker URL required (use -broker-url or BROKER_URL env)")
	}
	cfg.MQTTClientID = envString("MQTT_CLIENT_ID", "servo-sync-api")
	cfg.MQTTUsername = os.Getenv("MQTT_USERNAME")
	cfg.MQTTPassword = os.Getenv("MQTT_PASSWORD")

	var err error
	if cfg.PublishTimeout, err = envDuration("PUBLISH_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxPayloadBytes, err = envInt("MAX_PAYLOAD_BYTES", 16384); err != nil {
		return Config{}, err
	}

	cfg.Log.Level = envString("LOG_LEVEL", "info")
	cfg.Log.Format = envString("LOG_FORMAT", "text")
	cfg.Log.File = os.Getenv("LOG_FILE")
	if cfg.Log.MaxSizeMB, err = envInt("LOG_MAX_SIZE_MB", 100); err != nil {
		return Config{}, err
	}
	if cfg.Log.MaxBackups, err = envInt("LOG_MAX_BACKUPS", 3); err != nil {
		return Config{}, err
	}
	if cfg.Log.MaxAgeDays, err = envInt("LOG_MAX_AGE_DAYS", 28); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}
