// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/servo-sync-project/servo-sync-api/command"
	"github.com/servo-sync-project/servo-sync-api/middleware"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/store"
)

type RobotHandler struct {
	store      *store.Store
	dispatcher *command.Dispatcher
}

func NewRobotHandler(s *store.Store, d *command.Dispatcher) *RobotHandler {
	return &RobotHandler{store: s, dispatcher: d}
}

// CreateRobot handles POST /robots
func (h *RobotHandler) CreateRobot(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRobotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Botname == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "botname is required")
		return
	}

	userID := middleware.UserID(r.Context())
	robot, err := h.store.Robots.Create(r.Context(), userID, req.Botname, req.Description)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("robot created", "robot_id", robot.ID, "botname", robot.Botname, "user_id", userID)

	middleware.JSONResponse(w, http.StatusCreated, robot)
}

// ListMyRobots handles GET /robots/my
func (h *RobotHandler) ListMyRobots(w http.ResponseWriter, r *http.Request) {
	robots, err := h.store.Robots.ListByUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, robots)
}

// GetRobot handles GET /robots/{id}
func (h *RobotHandler) GetRobot(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	robot, err := h.store.Robots.Get(r.Context(), robotID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, robot)
}

// GetRobotByUID handles GET /robots/uuid/{uid}
func (h *RobotHandler) GetRobotByUID(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if uid == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "uid is required")
		return
	}

	robot, err := h.store.Robots.GetByUID(r.Context(), uid)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if robot.UserID != middleware.UserID(r.Context()) {
		middleware.ErrorResponse(w, http.StatusForbidden, "robot belongs to another user")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, robot)
}

// UpdateRobot handles PUT /robots/{id}
func (h *RobotHandler) UpdateRobot(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	var req models.UpdateRobotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	robot, err := h.store.Robots.Update(r.Context(), robotID, req.Botname, req.Description)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, robot)
}

// DeleteRobot handles DELETE /robots/{id}
func (h *RobotHandler) DeleteRobot(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	deleted, err := h.store.Robots.Delete(r.Context(), robotID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("robot deleted", "robot_id", robotID)

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{IsDeleted: deleted})
}

// MoveToInitialPosition handles POST /robots/{id}/move/initial-position
func (h *RobotHandler) MoveToInitialPosition(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	resp, err := h.dispatcher.MoveToInitialPosition(r.Context(), robotID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SetInitialPosition handles PUT /robots/{id}/move/initial-position.
// The new initial position is saved first and then sent to the robot.
func (h *RobotHandler) SetInitialPosition(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	var req models.UpdateInitialPositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, err := h.store.Robots.SetInitialPosition(r.Context(), robotID, req.InitialPosition); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if _, err := h.dispatcher.MoveToInitialPosition(r.Context(), robotID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	robot, err := h.store.Robots.Get(r.Context(), robotID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, robot)
}

// MoveToCurrentPosition handles PUT /robots/{id}/move/current-position
func (h *RobotHandler) MoveToCurrentPosition(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	var req models.UpdateCurrentPositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.dispatcher.MoveToSnapshot(r.Context(), robotID, req.CurrentPosition)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ExecuteMovement handles POST /robots/{id}/movements/{movementId}/execute
func (h *RobotHandler) ExecuteMovement(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	resp, err := h.dispatcher.ExecuteMovement(r.Context(), robotID, r.PathValue("movementId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// MoveToPosition handles POST /robots/{id}/positions/{positionId}/move
func (h *RobotHandler) MoveToPosition(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	resp, err := h.dispatcher.MoveToPosition(r.Context(), robotID, r.PathValue("positionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SaveMovementToStorage handles PUT /robots/{id}/storage/movements/{movementId}
func (h *RobotHandler) SaveMovementToStorage(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	resp, err := h.dispatcher.SaveMovement(r.Context(), robotID, r.PathValue("movementId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// DeleteMovementFromStorage handles DELETE /robots/{id}/storage/movements/{movementId}
func (h *RobotHandler) DeleteMovementFromStorage(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	resp, err := h.dispatcher.DeleteMovement(r.Context(), robotID, r.PathValue("movementId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SaveInitialPositionToStorage handles PUT /robots/{id}/storage/initial-position
func (h *RobotHandler) SaveInitialPositionToStorage(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	resp, err := h.dispatcher.SaveInitialPosition(r.Context(), robotID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ClearStorage handles DELETE /robots/{id}/storage
func (h *RobotHandler) ClearStorage(w http.ResponseWriter, r *http.Request) {
	robotID := r.PathValue("id")
	if !authorize(w, r, h.store.Ownership.Robot, robotID) {
		return
	}

	resp, err := h.dispatcher.ClearStorage(r.Context(), robotID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
