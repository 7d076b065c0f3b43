// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package command

import (
	"fmt"

	"github.com/servo-sync-project/servo-sync-api/models"
)

// Command tells a robot to reach a pose within Delay milliseconds.
type Command struct {
	Delay  int   `json:"delay"`
	Angles []int `json:"angles"`
}

func FromSnapshot(s models.PositionSnapshot) Command {
	return Command{Delay: s.Delay, Angles: s.Angles}
}

func FromPosition(p models.Position) Command {
	return Command{Delay: p.Delay, Angles: p.Angles}
}

func (c Command) Snapshot() models.PositionSnapshot {
	return models.PositionSnapshot{Delay: c.Delay, Angles: c.Angles}
}

// ToCommandList turns positions, already sorted by sequence, into commands
// in the same order. Nothing is filtered or reordered.
func ToCommandList(positions []models.Position) ([]Command, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no positions to send", models.ErrEmptyInput)
	}

	commands := make([]Command, len(positions))
	for i, p := range positions {
		commands[i] = FromPosition(p)
	}
	return commands, nil
}

// Topics a robot listens on.

func PositionsTopic(uid string) string {
	return "robot/" + uid + "/access/positions"
}

// Storage actions the robot firmware understands.
const (
	StorageSaveMovement        = "save-movement"
	StorageDeleteMovement      = "delete-movement"
	StorageSaveInitialPosition = "save-initial-position"
	StorageClear               = "clear"
)

func StorageTopic(uid, action string) string {
	return "robot/" + uid + "/access/storage/" + action
}
