// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"strings"

	"github.com/servo-sync-project/servo-sync-api/command"
	"github.com/servo-sync-project/servo-sync-api/handlers"
	"github.com/servo-sync-project/servo-sync-api/middleware"
	"github.com/servo-sync-project/servo-sync-api/store"
)

const apiPrefix = "/api/v1"

func NewRouter(s *store.Store, d *command.Dispatcher, verifier middleware.TokenVerifier) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	robotHandler := handlers.NewRobotHandler(s, d)
	servoGroupHandler := handlers.NewServoGroupHandler(s)
	movementHandler := handlers.NewMovementHandler(s)
	positionHandler := handlers.NewPositionHandler(s)

	// Every API route needs a signed-in user
	handle := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.HandleFunc(method+" "+apiPrefix+path, middleware.WithLogging(middleware.RequireUser(verifier, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Robots
	handle("POST /robots", robotHandler.CreateRobot)
	handle("GET /robots/my", robotHandler.ListMyRobots)
	handle("GET /robots/uuid/{uid}", robotHandler.GetRobotByUID)
	handle("GET /robots/{id}", robotHandler.GetRobot)
	handle("PUT /robots/{id}", robotHandler.UpdateRobot)
	handle("DELETE /robots/{id}", robotHandler.DeleteRobot)

	// Robot commands (published to the broker)
	handle("POST /robots/{id}/move/initial-position", robotHandler.MoveToInitialPosition)
	handle("PUT /robots/{id}/move/initial-position", robotHandler.SetInitialPosition)
	handle("PUT /robots/{id}/move/current-position", robotHandler.MoveToCurrentPosition)
	handle("POST /robots/{id}/movements/{movementId}/execute", robotHandler.ExecuteMovement)
	handle("POST /robots/{id}/positions/{positionId}/move", robotHandler.MoveToPosition)

	// On-robot storage
	handle("PUT /robots/{id}/storage/movements/{movementId}", robotHandler.SaveMovementToStorage)
	handle("DELETE /robots/{id}/storage/movements/{movementId}", robotHandler.DeleteMovementFromStorage)
	handle("PUT /robots/{id}/storage/initial-position", robotHandler.SaveInitialPositionToStorage)
	handle("DELETE /robots/{id}/storage", robotHandler.ClearStorage)

	// Servo groups
	handle("POST /servo-groups", servoGroupHandler.CreateServoGroup)
	handle("GET /servo-groups/robot/{id}", servoGroupHandler.ListServoGroups)
	handle("PUT /servo-groups/{id}", servoGroupHandler.UpdateServoGroup)
	handle("PUT /servo-groups/{id}/increase", servoGroupHandler.IncreaseSequence)
	handle("PUT /servo-groups/{id}/decrease", servoGroupHandler.DecreaseSequence)
	handle("DELETE /servo-groups/{id}", servoGroupHandler.DeleteServoGroup)

	// Movements
	handle("POST /movements", movementHandler.CreateMovement)
	handle("GET /movements/robot/{id}", movementHandler.ListMovements)
	handle("GET /movements/{id}", movementHandler.GetMovement)
	handle("PUT /movements/{id}", movementHandler.UpdateMovement)
	handle("DELETE /movements/{id}", movementHandler.DeleteMovement)

	// Positions
	handle("POST /positions", positionHandler.CreatePosition)
	handle("GET /positions/movement/{id}", positionHandler.ListPositions)
	handle("PUT /positions/{id}", positionHandler.UpdatePosition)
	handle("PUT /positions/{id}/increase", positionHandler.IncreaseSequence)
	handle("PUT /positions/{id}/decrease", positionHandler.DecreaseSequence)
	handle("DELETE /positions/{id}", positionHandler.DeletePosition)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("servo-sync API v1"))
	})

	return mux
}
