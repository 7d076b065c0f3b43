// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/servo-sync-project/servo-sync-api/models"
)

// StatusFilter matches the only topic robots publish on. Command and
// storage topics carry this service's own messages.
const StatusFilter = "robot/+/access/status"

// ConnectionStore records whether a robot is online.
type ConnectionStore interface {
	SetConnected(ctx context.Context, uid string, connected bool) error
}

// Presence keeps is_connected_broker in sync with the status robots publish
// (a retained "online" on connect and an "offline" last will).
type Presence struct {
	robots  ConnectionStore
	timeout time.Duration
}

func NewPresence(robots ConnectionStore) *Presence {
	return &Presence{robots: robots, timeout: 5 * time.Second}
}

// Listen subscribes p to StatusFilter on b.
func (p *Presence) Listen(ctx context.Context, b Broker) error {
	return b.Subscribe(ctx, StatusFilter, p.Handle)
}

// Handle is a Handler for StatusFilter.
func (p *Presence) Handle(ctx context.Context, topic string, payload []byte) {
	uid, ok := RobotUID(topic)
	if !ok {
		slog.Warn("ignoring status on unexpected topic", "topic", topic)
		return
	}

	var connected bool
	switch strings.TrimSpace(string(payload)) {
	case "online":
		connected = true
	case "offline":
		connected = false
	default:
		slog.Warn("ignoring unknown robot status", "robot_uid", uid, "status", string(payload))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.robots.SetConnected(ctx, uid, connected); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			slog.Warn("status from unknown robot", "robot_uid", uid)
			return
		}
		slog.Error("failed to update robot status", "robot_uid", uid, "error", err)
		return
	}
	slog.Info("robot status changed", "robot_uid", uid, "connected", connected)
}

// RobotUID extracts the uid from robot/{uid}/access/... topics.
func RobotUID(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] != "robot" || parts[1] == "" || parts[2] != "access" {
		return "", false
	}
	return parts[1], true
}
