// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/testutil"
)

func TestCreateMovement(t *testing.T) {
	env := newTestEnv(t)
	h := NewMovementHandler(env.store)
	robot := testutil.CreateTestRobot(t, env.conn, "user-1", "rover")

	testCases := []struct {
		name           string
		req            models.CreateMovementRequest
		expectedStatus int
	}{
		{
			name:           "with coordinates",
			req:            models.CreateMovementRequest{Name: "wave", Coordinates: &models.Coordinates{X: 1, Y: 1}, RobotID: robot.ID},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "without coordinates",
			req:            models.CreateMovementRequest{Name: "bow", RobotID: robot.ID},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate name",
			req:            models.CreateMovementRequest{Name: "wave", RobotID: robot.ID},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "coordinates taken",
			req:            models.CreateMovementRequest{Name: "spin", Coordinates: &models.Coordinates{X: 1, Y: 1}, RobotID: robot.ID},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "coordinates out of grid",
			req:            models.CreateMovementRequest{Name: "jump", Coordinates: &models.Coordinates{X: 10, Y: 1}, RobotID: robot.ID},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			req:            models.CreateMovementRequest{RobotID: robot.ID},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown robot",
			req:            models.CreateMovementRequest{Name: "ghost", RobotID: "nope"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := asUser(testutil.MakeRequest("POST", "/movements", tc.req, nil), "user-1")
			w := httptest.NewRecorder()

			h.CreateMovement(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
		})
	}
}

func TestMovementLimit(t *testing.T) {
	env := newTestEnv(t)
	h := NewMovementHandler(env.store)
	robot := testutil.CreateTestRobot(t, env.conn, "user-1", "rover")
	for i := 0; i < models.MaxMovementsPerRobot; i++ {
		testutil.CreateTestMovement(t, env.conn, robot.ID, string(rune('a'+i)))
	}

	req := asUser(testutil.MakeRequest("POST", "/movements",
		models.CreateMovementRequest{Name: "one-too-many", RobotID: robot.ID}, nil), "user-1")
	w := httptest.NewRecorder()
	h.CreateMovement(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetMovementWithPositions(t *testing.T) {
	env := newTestEnv(t)
	h := NewMovementHandler(env.store)
	robot := testutil.CreateTestRobot(t, env.conn, "user-1", "rover")
	movementID := testutil.CreateTestMovement(t, env.conn, robot.ID, "wave")
	testutil.CreateTestPosition(t, env.conn, movementID, 300, []int{1}, 2)
	testutil.CreateTestPosition(t, env.conn, movementID, 100, []int{2}, 1)

	req := asUser(testutil.MakeRequest("GET", "/movements/"+movementID, nil, nil), "user-1")
	req.SetPathValue("id", movementID)
	w := httptest.NewRecorder()
	h.GetMovement(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var got models.MovementWithPositions
	testutil.AssertJSON(t, w, &got)
	if got.Movement.Name != "wave" {
		t.Errorf("Expected movement 'wave', got '%s'", got.Movement.Name)
	}
	if len(got.Positions) != 2 || got.Positions[0].Sequence != 1 || got.Positions[0].Delay != 100 {
		t.Errorf("Expected positions in sequence order, got %+v", got.Positions)
	}

	req = asUser(testutil.MakeRequest("GET", "/movements/"+movementID, nil, nil), "user-2")
	req.SetPathValue("id", movementID)
	w = httptest.NewRecorder()
	h.GetMovement(w, req)
	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestUpdateListDeleteMovement(t *testing.T) {
	env := newTestEnv(t)
	h := NewMovementHandler(env.store)
	robot := testutil.CreateTestRobot(t, env.conn, "user-1", "rover")
	waveID := testutil.CreateTestMovement(t, env.conn, robot.ID, "wave")
	testutil.CreateTestMovement(t, env.conn, robot.ID, "bow")

	// Renaming to its own name is fine, renaming onto a sibling is not
	for _, tc := range []struct {
		name     string
		expected int
	}{
		{"wave", http.StatusOK},
		{"bow", http.StatusBadRequest},
		{"salute", http.StatusOK},
	} {
		req := asUser(testutil.MakeRequest("PUT", "/movements/"+waveID,
			models.UpdateMovementRequest{Name: tc.name}, nil), "user-1")
		req.SetPathValue("id", waveID)
		w := httptest.NewRecorder()
		h.UpdateMovement(w, req)
		testutil.AssertStatus(t, w, tc.expected)
	}

	req := asUser(testutil.MakeRequest("GET", "/movements/robot/"+robot.ID, nil, nil), "user-1")
	req.SetPathValue("id", robot.ID)
	w := httptest.NewRecorder()
	h.ListMovements(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var movements []models.Movement
	testutil.AssertJSON(t, w, &movements)
	if len(movements) != 2 || movements[0].Name != "bow" || movements[1].Name != "salute" {
		t.Errorf("Expected [bow salute], got %+v", movements)
	}

	req = asUser(testutil.MakeRequest("DELETE", "/movements/"+waveID, nil, nil), "user-1")
	req.SetPathValue("id", waveID)
	w = httptest.NewRecorder()
	h.DeleteMovement(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	req = asUser(testutil.MakeRequest("DELETE", "/movements/"+waveID, nil, nil), "user-1")
	req.SetPathValue("id", waveID)
	w = httptest.NewRecorder()
	h.DeleteMovement(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
