// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/servo-sync-project/servo-sync-api/middleware"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/store"
)

type PositionHandler struct {
	store *store.Store
}

func NewPositionHandler(s *store.Store) *PositionHandler {
	return &PositionHandler{store: s}
}

// CreatePosition handles POST /positions
func (h *PositionHandler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.MovementID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "movement_id is required")
		return
	}
	if !authorize(w, r, h.store.Ownership.Movement, req.MovementID) {
		return
	}

	position, err := h.store.Positions.Create(r.Context(), models.Position{
		Delay:      req.Delay,
		Angles:     req.Angles,
		MovementID: req.MovementID,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, position)
}

// ListPositions handles GET /positions/movement/{id}
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	movementID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Movement, movementID) {
		return
	}

	positions, err := h.store.Positions.List(r.Context(), movementID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, positions)
}

// UpdatePosition handles PUT /positions/{id}
func (h *PositionHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Position, positionID) {
		return
	}

	var req models.UpdatePositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	position, err := h.store.Positions.Update(r.Context(), positionID, models.Position{
		Delay:  req.Delay,
		Angles: req.Angles,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, position)
}

// IncreaseSequence handles PUT /positions/{id}/increase
func (h *PositionHandler) IncreaseSequence(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.store.Positions.MoveUp)
}

// DecreaseSequence handles PUT /positions/{id}/decrease
func (h *PositionHandler) DecreaseSequence(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.store.Positions.MoveDown)
}

func (h *PositionHandler) move(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, id string) (models.Position, error)) {
	positionID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Position, positionID) {
		return
	}

	position, err := move(r.Context(), positionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, position)
}

// DeletePosition handles DELETE /positions/{id}
func (h *PositionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Position, positionID) {
		return
	}

	deleted, err := h.store.Positions.Delete(r.Context(), positionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{IsDeleted: deleted})
}
