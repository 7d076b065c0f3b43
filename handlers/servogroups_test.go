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

func TestCreateServoGroup(t *testing.T) {
	env := newTestEnv(t)
	h := NewServoGroupHandler(env.store)
	robot := testutil.CreateTestRobot(t, env.conn, "user-1", "rover")
	testutil.CreateTestServoGroup(t, env.conn, robot.ID, "legs", models.ColumnMiddle, 20, 1)

	testCases := []struct {
		name           string
		req            models.CreateServoGroupRequest
		userID         string
		expectedStatus int
	}{
		{
			name:           "valid group",
			req:            models.CreateServoGroupRequest{Name: "arm", NumServos: 2, Column: models.ColumnLeft, RobotID: robot.ID},
			userID:         "user-1",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate name",
			req:            models.CreateServoGroupRequest{Name: "legs", NumServos: 1, Column: models.ColumnRight, RobotID: robot.ID},
			userID:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "servo budget exceeded",
			req:            models.CreateServoGroupRequest{Name: "tail", NumServos: 3, Column: models.ColumnRight, RobotID: robot.ID},
			userID:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid column",
			req:            models.CreateServoGroupRequest{Name: "head", NumServos: 1, Column: "top", RobotID: robot.ID},
			userID:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing robot_id",
			req:            models.CreateServoGroupRequest{Name: "head", NumServos: 1, Column: models.ColumnLeft},
			userID:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "someone else's robot",
			req:            models.CreateServoGroupRequest{Name: "head", NumServos: 1, Column: models.ColumnLeft, RobotID: robot.ID},
			userID:         "user-2",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := asUser(testutil.MakeRequest("POST", "/servo-groups", tc.req, nil), tc.userID)
			w := httptest.NewRecorder()

			h.CreateServoGroup(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
			if tc.expectedStatus == http.StatusCreated {
				var group models.ServoGroup
				testutil.AssertJSON(t, w, &group)
				if group.Sequence != 1 {
					t.Errorf("Expected first group in its column to get sequence 1, got %d", group.Sequence)
				}
			}
		})
	}
}

func TestServoGroupSequence(t *testing.T) {
	env := newTestEnv(t)
	h := NewServoGroupHandler(env.store)
	robot := testutil.CreateTestRobot(t, env.conn, "user-1", "rover")
	first := testutil.CreateTestServoGroup(t, env.conn, robot.ID, "shoulder", models.ColumnLeft, 1, 1)
	second := testutil.CreateTestServoGroup(t, env.conn, robot.ID, "elbow", models.ColumnLeft, 1, 2)

	call := func(handler http.HandlerFunc, id string) *httptest.ResponseRecorder {
		req := asUser(testutil.MakeRequest("PUT", "/servo-groups/"+id, nil, nil), "user-1")
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	testutil.AssertStatus(t, call(h.IncreaseSequence, second), http.StatusBadRequest)
	testutil.AssertStatus(t, call(h.DecreaseSequence, first), http.StatusBadRequest)

	w := call(h.IncreaseSequence, first)
	testutil.AssertStatus(t, w, http.StatusOK)
	var moved models.ServoGroup
	testutil.AssertJSON(t, w, &moved)
	if moved.Sequence != 2 {
		t.Errorf("Expected sequence 2, got %d", moved.Sequence)
	}

	seqs := testutil.Sequences(t, env.conn, "servo_groups", "robot_id", robot.ID)
	if seqs[first] != 2 || seqs[second] != 1 {
		t.Errorf("Expected groups to swap, got %v", seqs)
	}

	// Delete compacts the remaining group back to 1
	w = call(h.DeleteServoGroup, second)
	testutil.AssertStatus(t, w, http.StatusOK)
	seqs = testutil.Sequences(t, env.conn, "servo_groups", "robot_id", robot.ID)
	if len(seqs) != 1 || seqs[first] != 1 {
		t.Errorf("Expected remaining group at sequence 1, got %v", seqs)
	}
}

func TestListAndUpdateServoGroups(t *testing.T) {
	env := newTestEnv(t)
	h := NewServoGroupHandler(env.store)
	robot := testutil.CreateTestRobot(t, env.conn, "user-1", "rover")
	groupID := testutil.CreateTestServoGroup(t, env.conn, robot.ID, "arm", models.ColumnRight, 2, 1)
	testutil.CreateTestServoGroup(t, env.conn, robot.ID, "leg", models.ColumnLeft, 2, 1)

	req := asUser(testutil.MakeRequest("GET", "/servo-groups/robot/"+robot.ID, nil, nil), "user-1")
	req.SetPathValue("id", robot.ID)
	w := httptest.NewRecorder()
	h.ListServoGroups(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var groups []models.ServoGroup
	testutil.AssertJSON(t, w, &groups)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if groups[0].Column != models.ColumnLeft {
		t.Errorf("Expected groups ordered by column, got %+v", groups)
	}

	req = asUser(testutil.MakeRequest("PUT", "/servo-groups/"+groupID,
		models.UpdateServoGroupRequest{Name: "big-arm", NumServos: 4}, nil), "user-1")
	req.SetPathValue("id", groupID)
	w = httptest.NewRecorder()
	h.UpdateServoGroup(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var updated models.ServoGroup
	testutil.AssertJSON(t, w, &updated)
	if updated.Name != "big-arm" || updated.NumServos != 4 || updated.Column != models.ColumnRight {
		t.Errorf("Expected name and servo count to change, got %+v", updated)
	}
}

func TestServoGroupChangesMustFitStoredPoses(t *testing.T) {
	env := newTestEnv(t)
	h := NewServoGroupHandler(env.store)
	robot := testutil.CreateTestRobot(t, env.conn, "user-1", "rover")
	groupID := testutil.CreateTestServoGroup(t, env.conn, robot.ID, "arm", models.ColumnLeft, 2, 1)
	movementID := testutil.CreateTestMovement(t, env.conn, robot.ID, "wave")
	testutil.CreateTestPosition(t, env.conn, movementID, 200, []int{10, 20}, 1)

	req := asUser(testutil.MakeRequest("POST", "/servo-groups",
		models.CreateServoGroupRequest{Name: "head", NumServos: 3, Column: models.ColumnMiddle, RobotID: robot.ID}, nil), "user-1")
	w := httptest.NewRecorder()
	h.CreateServoGroup(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	req = asUser(testutil.MakeRequest("PUT", "/servo-groups/"+groupID,
		models.UpdateServoGroupRequest{Name: "arm", NumServos: 3}, nil), "user-1")
	req.SetPathValue("id", groupID)
	w = httptest.NewRecorder()
	h.UpdateServoGroup(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	req = asUser(testutil.MakeRequest("DELETE", "/servo-groups/"+groupID, nil, nil), "user-1")
	req.SetPathValue("id", groupID)
	w = httptest.NewRecorder()
	h.DeleteServoGroup(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
}
