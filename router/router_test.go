// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/servo-sync-project/servo-sync-api/auth"
	"github.com/servo-sync-project/servo-sync-api/command"
	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/store"
	"github.com/servo-sync-project/servo-sync-api/testutil"
)

type testServer struct {
	mux   *http.ServeMux
	store *store.Store
	pub   *testutil.Publisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	s := store.New(conn, db.SQLite)
	pub := &testutil.Publisher{}
	d := command.NewDispatcher(pub, command.Stores{
		Robots:    s.Robots,
		Movements: s.Movements,
		Positions: s.Positions,
		Servos:    s.ServoGroups,
		Locks:     s.Locks,
	}, command.Config{PublishTimeout: cfg.PublishTimeout, MaxPayloadBytes: cfg.MaxPayloadBytes})

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		t.Fatalf("Failed to create verifier: %v", err)
	}

	return &testServer{mux: NewRouter(s, d, verifier), store: s, pub: pub}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var headers map[string]string
	if userID != "" {
		headers = testutil.AuthHeader(t, userID)
	}
	req := testutil.MakeRequest(method, path, body, headers)
	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/health", nil, "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/", nil, "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "servo-sync API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	w = ts.do(t, "GET", "/no-such-page", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/robots"},
		{"GET", "/api/v1/robots/my"},
		{"GET", "/api/v1/robots/r1"},
		{"GET", "/api/v1/robots/uuid/u1"},
		{"PUT", "/api/v1/robots/r1"},
		{"DELETE", "/api/v1/robots/r1"},
		{"POST", "/api/v1/robots/r1/move/initial-position"},
		{"PUT", "/api/v1/robots/r1/move/initial-position"},
		{"PUT", "/api/v1/robots/r1/move/current-position"},
		{"POST", "/api/v1/robots/r1/movements/m1/execute"},
		{"POST", "/api/v1/robots/r1/positions/p1/move"},
		{"PUT", "/api/v1/robots/r1/storage/movements/m1"},
		{"DELETE", "/api/v1/robots/r1/storage/movements/m1"},
		{"PUT", "/api/v1/robots/r1/storage/initial-position"},
		{"DELETE", "/api/v1/robots/r1/storage"},
		{"POST", "/api/v1/servo-groups"},
		{"GET", "/api/v1/servo-groups/robot/r1"},
		{"PUT", "/api/v1/servo-groups/s1"},
		{"PUT", "/api/v1/servo-groups/s1/increase"},
		{"PUT", "/api/v1/servo-groups/s1/decrease"},
		{"DELETE", "/api/v1/servo-groups/s1"},
		{"POST", "/api/v1/movements"},
		{"GET", "/api/v1/movements/robot/r1"},
		{"GET", "/api/v1/movements/m1"},
		{"PUT", "/api/v1/movements/m1"},
		{"DELETE", "/api/v1/movements/m1"},
		{"POST", "/api/v1/positions"},
		{"GET", "/api/v1/positions/movement/m1"},
		{"PUT", "/api/v1/positions/p1"},
		{"PUT", "/api/v1/positions/p1/increase"},
		{"PUT", "/api/v1/positions/p1/decrease"},
		{"DELETE", "/api/v1/positions/p1"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := ts.do(t, tc.method, tc.path, nil, "")

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401 without a token, got %d", w.Code)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"PATCH", "/api/v1/robots/r1"},
		{"GET", "/api/v1/robots/r1/storage"},
		{"POST", "/api/v1/positions/p1/increase"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := ts.do(t, tc.method, tc.path, nil, "user-1")

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/v1/robots", models.CreateRobotRequest{Botname: "rover"}, "user-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("Create robot failed: %d - %s", w.Code, w.Body.String())
	}
	var robot models.Robot
	json.NewDecoder(w.Body).Decode(&robot)

	t.Run("robot ID", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/robots/"+robot.ID, nil, "user-1")
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("robot uid", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/robots/uuid/"+robot.UniqueUID, nil, "user-1")
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("my robots is not an id", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/robots/my", nil, "user-1")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var robots []models.Robot
		json.NewDecoder(w.Body).Decode(&robots)
		if len(robots) != 1 {
			t.Errorf("Expected 1 robot, got %d", len(robots))
		}
	})
}

// TestFullRobotWorkflow walks through configuring a robot and driving it:
// 1. Create robot
// 2. Add servo groups
// 3. Create a movement with three positions
// 4. Reorder a position
// 5. Set the initial position and move there
// 6. Execute the movement
// 7. Store it on the robot
// 8. Delete the robot
func TestFullRobotWorkflow(t *testing.T) {
	ts := newTestServer(t)
	const user = "user-1"

	// Step 1
	w := ts.do(t, "POST", "/api/v1/robots", models.CreateRobotRequest{Botname: "walker", Description: "biped"}, user)
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create robot failed: %d - %s", w.Code, w.Body.String())
	}
	var robot models.Robot
	json.NewDecoder(w.Body).Decode(&robot)

	// Step 2
	for _, g := range []models.CreateServoGroupRequest{
		{Name: "left-leg", NumServos: 2, Column: models.ColumnLeft, RobotID: robot.ID},
		{Name: "right-leg", NumServos: 2, Column: models.ColumnRight, RobotID: robot.ID},
	} {
		w := ts.do(t, "POST", "/api/v1/servo-groups", g, user)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Create servo group %s failed: %d - %s", g.Name, w.Code, w.Body.String())
		}
	}

	// Step 3
	w = ts.do(t, "POST", "/api/v1/movements", models.CreateMovementRequest{
		Name: "step", Coordinates: &models.Coordinates{X: 1, Y: 1}, RobotID: robot.ID,
	}, user)
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 3 - Create movement failed: %d - %s", w.Code, w.Body.String())
	}
	var movement models.Movement
	json.NewDecoder(w.Body).Decode(&movement)

	positionIDs := make([]string, 0, 3)
	for _, delay := range []int{100, 200, 300} {
		w := ts.do(t, "POST", "/api/v1/positions", models.CreatePositionRequest{
			Delay: delay, Angles: []int{90, 90, 90, 90}, MovementID: movement.ID,
		}, user)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 3 - Create position failed: %d - %s", w.Code, w.Body.String())
		}
		var p models.Position
		json.NewDecoder(w.Body).Decode(&p)
		positionIDs = append(positionIDs, p.ID)
	}

	// Step 4: move the first position to the end
	for i := 0; i < 2; i++ {
		w := ts.do(t, "PUT", "/api/v1/positions/"+positionIDs[0]+"/increase", nil, user)
		if w.Code != http.StatusOK {
			t.Fatalf("Step 4 - Increase failed: %d - %s", w.Code, w.Body.String())
		}
	}
	w = ts.do(t, "PUT", "/api/v1/positions/"+positionIDs[0]+"/increase", nil, user)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Step 4 - Expected 400 at the last sequence, got %d", w.Code)
	}

	// Step 5
	w = ts.do(t, "PUT", "/api/v1/robots/"+robot.ID+"/move/initial-position", models.UpdateInitialPositionRequest{
		InitialPosition: models.PositionSnapshot{Delay: 500, Angles: []int{0, 0, 0, 0}},
	}, user)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 5 - Set initial position failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 6
	w = ts.do(t, "POST", "/api/v1/robots/"+robot.ID+"/movements/"+movement.ID+"/execute", nil, user)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 6 - Execute failed: %d - %s", w.Code, w.Body.String())
	}
	msgs := ts.pub.Published()
	var sent []command.Command
	if err := json.Unmarshal(msgs[len(msgs)-1].Payload, &sent); err != nil {
		t.Fatalf("Step 6 - Failed to decode payload: %v", err)
	}
	if len(sent) != 3 || sent[0].Delay != 200 || sent[1].Delay != 300 || sent[2].Delay != 100 {
		t.Errorf("Step 6 - Expected delays [200 300 100], got %+v", sent)
	}

	w = ts.do(t, "GET", "/api/v1/robots/"+robot.ID, nil, user)
	var current models.Robot
	json.NewDecoder(w.Body).Decode(&current)
	if current.CurrentPosition == nil || current.CurrentPosition.Delay != 100 {
		t.Errorf("Step 6 - Expected current position from the last command, got %+v", current.CurrentPosition)
	}

	// Step 7
	w = ts.do(t, "PUT", "/api/v1/robots/"+robot.ID+"/storage/movements/"+movement.ID, nil, user)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 7 - Store movement failed: %d - %s", w.Code, w.Body.String())
	}

	// Another user can't touch any of it
	w = ts.do(t, "POST", "/api/v1/robots/"+robot.ID+"/movements/"+movement.ID+"/execute", nil, "user-2")
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for another user, got %d", w.Code)
	}

	// Step 8
	w = ts.do(t, "DELETE", "/api/v1/robots/"+robot.ID, nil, user)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 8 - Delete robot failed: %d - %s", w.Code, w.Body.String())
	}
	w = ts.do(t, "GET", "/api/v1/movements/"+movement.ID, nil, user)
	if w.Code != http.StatusNotFound {
		t.Errorf("Step 8 - Expected movement to be gone, got %d", w.Code)
	}
}
