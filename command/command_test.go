// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package command_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servo-sync-project/servo-sync-api/command"
	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/store"
	"github.com/servo-sync-project/servo-sync-api/testutil"
)

func TestToCommandListEmpty(t *testing.T) {
	_, err := command.ToCommandList(nil)
	assert.True(t, errors.Is(err, models.ErrEmptyInput))
}

func TestToCommandListFollowsSequence(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn, db.SQLite)
	ctx := context.Background()

	robot := testutil.CreateTestRobot(t, conn, "user-1", "bender")
	movementID := testutil.CreateTestMovement(t, conn, robot.ID, "wave")

	var created []models.Position
	for _, d := range []int{100, 200, 300} {
		p, err := s.Positions.Create(ctx, models.Position{MovementID: movementID, Delay: d, Angles: []int{d / 10}})
		require.NoError(t, err)
		created = append(created, p)
	}

	// First created ends up last: sequences become [3, 1, 2] in creation order.
	_, err := s.Positions.MoveUp(ctx, created[0].ID)
	require.NoError(t, err)
	_, err = s.Positions.MoveUp(ctx, created[0].ID)
	require.NoError(t, err)

	positions, err := s.Positions.List(ctx, movementID)
	require.NoError(t, err)

	commands, err := command.ToCommandList(positions)
	require.NoError(t, err)
	require.Len(t, commands, 3)
	assert.Equal(t, []int{200, 300, 100}, []int{commands[0].Delay, commands[1].Delay, commands[2].Delay})
}

func TestCommandJSON(t *testing.T) {
	raw, err := json.Marshal([]command.Command{{Delay: 200, Angles: []int{10, 20}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"delay":200,"angles":[10,20]}]`, string(raw))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "robot/abc/access/positions", command.PositionsTopic("abc"))
	assert.Equal(t, "robot/abc/access/storage/clear", command.StorageTopic("abc", command.StorageClear))
}

func TestFromSnapshotRoundTrip(t *testing.T) {
	snap := models.PositionSnapshot{Delay: 400, Angles: []int{1, 2}}
	assert.Equal(t, snap, command.FromSnapshot(snap).Snapshot())
}
