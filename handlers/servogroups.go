// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/servo-sync-project/servo-sync-api/middleware"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/store"
)

type ServoGroupHandler struct {
	store *store.Store
}

func NewServoGroupHandler(s *store.Store) *ServoGroupHandler {
	return &ServoGroupHandler{store: s}
}

// CreateServoGroup handles POST /servo-groups
func (h *ServoGroupHandler) CreateServoGroup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateServoGroupRequest
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

	group, err := h.store.ServoGroups.Create(r.Context(), models.ServoGroup{
		Name:      req.Name,
		NumServos: req.NumServos,
		Column:    req.Column,
		RobotID:   req.RobotID,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("servo group created", "servo_group_id", group.ID, "robot_id", group.RobotID, "column", group.Column)

	middleware.JSONResponse(w, http.StatusCreated, group)
}

// ListServoGroups handles GET /servo-groups/robot/{id}
func (h *ServoGroupHandler) ListServoGroups(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	groups, err := h.store.ServoGroups.ListByRobot(r.Context(), robotID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, groups)
}

// UpdateServoGroup handles PUT /servo-groups/{id}
func (h *ServoGroupHandler) UpdateServoGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.ServoGroup, groupID) {
		return
	}

	var req models.UpdateServoGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	group, err := h.store.ServoGroups.Update(r.Context(), groupID, models.ServoGroup{
		Name:      req.Name,
		NumServos: req.NumServos,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, group)
}

// IncreaseSequence handles PUT /servo-groups/{id}/increase
func (h *ServoGroupHandler) IncreaseSequence(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.store.ServoGroups.MoveUp)
}

// DecreaseSequence handles PUT /servo-groups/{id}/decrease
func (h *ServoGroupHandler) DecreaseSequence(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.store.ServoGroups.MoveDown)
}

func (h *ServoGroupHandler) move(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, id string) (models.ServoGroup, error)) {
	groupID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.ServoGroup, groupID) {
		return
	}

	group, err := move(r.Context(), groupID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, group)
}

// DeleteServoGroup handles DELETE /servo-groups/{id}
func (h *ServoGroupHandler) DeleteServoGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.ServoGroup, groupID) {
		return
	}

	deleted, err := h.store.ServoGroups.Delete(r.Context(), groupID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{IsDeleted: deleted})
}
