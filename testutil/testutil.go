// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/servo-sync-project/servo-sync-api/auth"
	"github.com/servo-sync-project/servo-sync-api/cliparse"
	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/models"
)

const testJWTSecret = "test-jwt-secret"

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, _, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            8000,
		DatabaseURL:     ":memory:",
		DatabaseType:    "sqlite",
		JWTSecret:       testJWTSecret,
		BrokerType:      "mqtt",
		BrokerURL:       "tcp://localhost:1883",
		PublishTimeout:  time.Second,
		MaxPayloadBytes: 16384,
	}
}

// BearerToken mints a token for userID signed with the test secret.
func BearerToken(t *testing.T, userID string) string {
	t.Helper()

	token, err := auth.IssueToken(testJWTSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// AuthHeader returns the Authorization header for userID.
func AuthHeader(t *testing.T, userID string) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + BearerToken(t, userID)}
}

// CreateTestRobot inserts a robot owned by userID and returns it.
func CreateTestRobot(t *testing.T, conn *sql.DB, userID, botname string) models.Robot {
	t.Helper()

	robot := models.Robot{
		UniqueUID: auth.NewRobotUID(),
		Botname:   botname,
		UserID:    userID,
	}
	robot.ID, _ = auth.GenerateID(16)

	_, err := conn.Exec(`
		INSERT INTO robots (id, unique_uid, botname, description, user_id)
		VALUES ($1, $2, $3, '', $4)
	`, robot.ID, robot.UniqueUID, robot.Botname, robot.UserID)
	if err != nil {
		t.Fatalf("Failed to create test robot: %v", err)
	}

	return robot
}

// SetTestInitialPosition stores an initial position on a robot.
func SetTestInitialPosition(t *testing.T, conn *sql.DB, robotID string, snap models.PositionSnapshot) {
	t.Helper()
	setSnapshot(t, conn, "initial_position", robotID, snap)
}

// SetTestCurrentPosition stores a current position on a robot.
func SetTestCurrentPosition(t *testing.T, conn *sql.DB, robotID string, snap models.PositionSnapshot) {
	t.Helper()
	setSnapshot(t, conn, "current_position", robotID, snap)
}

func setSnapshot(t *testing.T, conn *sql.DB, column, robotID string, snap models.PositionSnapshot) {
	t.Helper()

	raw, _ := json.Marshal(snap)
	_, err := conn.Exec(`UPDATE robots SET `+column+` = $1 WHERE id = $2`, string(raw), robotID)
	if err != nil {
		t.Fatalf("Failed to set %s: %v", column, err)
	}
}

// CreateTestServoGroup inserts a servo group at the given sequence.
func CreateTestServoGroup(t *testing.T, conn *sql.DB, robotID, name string, col models.Column, numServos, seq int) string {
	t.Helper()

	id, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO servo_groups (id, robot_id, name, num_servos, col, sequence)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, robotID, name, numServos, string(col), seq)
	if err != nil {
		t.Fatalf("Failed to create test servo group: %v", err)
	}

	return id
}

// CreateTestMovement inserts a movement without coordinates.
func CreateTestMovement(t *testing.T, conn *sql.DB, robotID, name string) string {
	t.Helper()

	id, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO movements (id, robot_id, name)
		VALUES ($1, $2, $3)
	`, id, robotID, name)
	if err != nil {
		t.Fatalf("Failed to create test movement: %v", err)
	}

	return id
}

// CreateTestPosition inserts a position at the given sequence.
func CreateTestPosition(t *testing.T, conn *sql.DB, movementID string, delay int, angles []int, seq int) string {
	t.Helper()

	id, _ := auth.GenerateID(12)
	raw, _ := json.Marshal(angles)
	_, err := conn.Exec(`
		INSERT INTO positions (id, movement_id, delay_ms, angles, sequence)
		VALUES ($1, $2, $3, $4, $5)
	`, id, movementID, delay, string(raw), seq)
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}

	return id
}

// Sequences returns id -> sequence for every row of table whose column equals value.
func Sequences(t *testing.T, conn *sql.DB, table, column, value string) map[string]int {
	t.Helper()

	rows, err := conn.Query(`SELECT id, sequence FROM `+table+` WHERE `+column+` = $1`, value)
	if err != nil {
		t.Fatalf("Failed to read sequences: %v", err)
	}
	defer rows.Close()

	seqs := make(map[string]int)
	for rows.Next() {
		var id string
		var seq int
		if err := rows.Scan(&id, &seq); err != nil {
			t.Fatalf("Failed to scan sequence: %v", err)
		}
		seqs[id] = seq
	}
	return seqs
}

// Message is one publish seen by Publisher.
type Message struct {
	Topic   string
	Payload []byte
}

// Publisher is an in-memory broker. Set Err to make every publish fail.
type Publisher struct {
	mu       sync.Mutex
	Err      error
	Messages []Message
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// Published returns a copy of the recorded messages.
func (p *Publisher) Published() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.Messages...)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
