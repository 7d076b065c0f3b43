// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/servo-sync-project/servo-sync-api/middleware"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/store"
)

type MovementHandler struct {
	store *store.Store
}

func NewMovementHandler(s *store.Store) *MovementHandler {
	return &MovementHandler{store: s}
}

// CreateMovement handles POST /movements
func (h *MovementHandler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMovementRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.RobotID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "robot_id is required")
		return
	}
	if !authorize(w, r, h.store.Ownership.Robot, req.RobotID) {
		return
	}

	movement, err := h.store.Movements.Create(r.Context(), models.Movement{
		Name:        req.Name,
		Coordinates: req.Coordinates,
		RobotID:     req.RobotID,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("movement created", "movement_id", movement.ID, "robot_id", movement.RobotID, "name", movement.Name)

	middleware.JSONResponse(w, http.StatusCreated, movement)
}

// ListMovements handles GET /movements/robot/{id}
func (h *MovementHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	movements, err := h.store.Movements.ListByRobot(r.Context(), robotID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, movements)
}

// GetMovement handles GET /movements/{id}. The positions come back in
// sequence order.
func (h *MovementHandler) GetMovement(w http.ResponseWriter, r *http.Request) {
	movementID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Movement, movementID) {
		return
	}

	movement, err := h.store.Movements.Get(r.Context(), movementID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	positions, err := h.store.Positions.List(r.Context(), movementID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MovementWithPositions{
		Movement:  movement,
		Positions: positions,
	})
}

// UpdateMovement handles PUT /movements/{id}
func (h *MovementHandler) UpdateMovement(w http.ResponseWriter, r *http.Request) {
	movementID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Movement, movementID) {
		return
	}

	var req models.UpdateMovementRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	movement, err := h.store.Movements.Update(r.Context(), movementID, models.Movement{
		Name:        req.Name,
		Coordinates: req.Coordinates,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, movement)
}

// DeleteMovement handles DELETE /movements/{id}
func (h *MovementHandler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	movementID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Movement, movementID) {
		return
	}

	deleted, err := h.store.Movements.Delete(r.Context(), movementID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("movement deleted", "movement_id", movementID)

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{IsDeleted: deleted})
}
