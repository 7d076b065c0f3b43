package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/servo-sync-project/servo-sync-api/auth"
	"github.com/servo-sync-project/servo-sync-api/broker"
	"github.com/servo-sync-project/servo-sync-api/cliparse"
	"github.com/servo-sync-project/servo-sync-api/command"
	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/logging"
	"github.com/servo-sync-project/servo-sync-api/middleware"
	"github.com/servo-sync-project/servo-sync-api/router"
	"github.com/servo-sync-project/servo-sync-api/store"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	logFile, err := logging.Setup(cfg.Log, os.Stdout)
	if err != nil {
		slog.Error("logging setup failed", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	// Connect to the database
	dbConn, dialect, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "database", dialect.Name)

	stores := store.New(dbConn, dialect)

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		slog.Error("token verifier setup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the broker
	bus, err := broker.New(broker.Config{
		Type:     cfg.BrokerType,
		URL:      cfg.BrokerURL,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
	})
	if err != nil {
		slog.Error("broker setup failed", "error", err)
		os.Exit(1)
	}
	if err := bus.Connect(ctx); err != nil {
		slog.Error("broker connection failed", "broker", cfg.BrokerType, "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("Broker connected", "broker", cfg.BrokerType)

	// Track which robots are online
	if err := broker.NewPresence(stores.Robots).Listen(ctx, bus); err != nil {
		slog.Error("broker subscription failed", "filter", broker.StatusFilter, "error", err)
		os.Exit(1)
	}

	dispatcher := command.NewDispatcher(bus, command.Stores{
		Robots:    stores.Robots,
		Movements: stores.Movements,
		Positions: stores.Positions,
		Servos:    stores.ServoGroups,
		Locks:     stores.Locks,
	}, command.Config{
		PublishTimeout:  cfg.PublishTimeout,
		MaxPayloadBytes: cfg.MaxPayloadBytes,
	})

	// Create router
	mux := router.NewRouter(stores, dispatcher, verifier)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		// Wait for Ctrl-C or SIGTERM
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		return
	}
	<-drained
	slog.Info("Server closed", "error", err)
}
