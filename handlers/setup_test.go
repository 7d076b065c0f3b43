// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/servo-sync-project/servo-sync-api/command"
	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/middleware"
	"github.com/servo-sync-project/servo-sync-api/store"
	"github.com/servo-sync-project/servo-sync-api/testutil"
)

type testEnv struct {
	conn       *sql.DB
	store      *store.Store
	pub        *testutil.Publisher
	dispatcher *command.Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
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

	return &testEnv{conn: conn, store: s, pub: pub, dispatcher: d}
}

// asUser makes req look like it passed RequireUser for userID.
func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}
