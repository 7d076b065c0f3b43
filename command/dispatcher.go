// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/servo-sync-project/servo-sync-api/models"
	"github.com/servo-sync-project/servo-sync-api/sequence"
)

// Publisher sends a payload to a topic. It does not confirm delivery to
// the device.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type RobotStore interface {
	Get(ctx context.Context, id string) (models.Robot, error)
	SetCurrentPosition(ctx context.Context, id string, snap models.PositionSnapshot) error
}

type MovementStore interface {
	Get(ctx context.Context, id string) (models.Movement, error)
}

type PositionStore interface {
	Get(ctx context.Context, id string) (models.Position, error)
	// List returns the positions of a movement sorted by sequence.
	List(ctx context.Context, movementID string) ([]models.Position, error)
}

type ServoCounter interface {
	TotalServos(ctx context.Context, robotID string) (int, error)
}

// Stores is what the dispatcher reads robots and poses from.
type Stores struct {
	Robots    RobotStore
	Movements MovementStore
	Positions PositionStore
	Servos    ServoCounter
	// Locks serializes sends with edits of the same robot. Pass the
	// store's Locker; nil gives the dispatcher a private one.
	Locks *sequence.Locker
}

type Config struct {
	PublishTimeout  time.Duration
	MaxPayloadBytes int
}

// Dispatcher sends commands to robots. Sends to one robot are serialized;
// the current position is written only after the publish went out.
type Dispatcher struct {
	pub    Publisher
	stores Stores
	cfg    Config
	locks  *sequence.Locker
}

func NewDispatcher(pub Publisher, stores Stores, cfg Config) *Dispatcher {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = 16384
	}
	locks := stores.Locks
	if locks == nil {
		locks = sequence.NewLocker()
	}
	return &Dispatcher{pub: pub, stores: stores, cfg: cfg, locks: locks}
}

// ExecuteMovement sends every position of a movement, in sequence order.
func (d *Dispatcher) ExecuteMovement(ctx context.Context, robotID, movementID string) (models.DispatchResponse, error) {
	var resp models.DispatchResponse
	err := d.withRobot(ctx, robotID, func(robot models.Robot) error {
		movement, err := d.movementOf(ctx, robot, movementID)
		if err != nil {
			return err
		}

		positions, err := d.stores.Positions.List(ctx, movement.ID)
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			return fmt.Errorf("%w: movement %q has no positions", models.ErrNotFound, movement.Name)
		}

		commands, err := ToCommandList(positions)
		if err != nil {
			return err
		}
		resp, err = d.send(ctx, robot, commands)
		return err
	})
	return resp, models.Wrap("dispatch.execute_movement", "robot "+robotID, movementID, err)
}

// MoveToPosition sends a single position of one of the robot's movements.
func (d *Dispatcher) MoveToPosition(ctx context.Context, robotID, positionID string) (models.DispatchResponse, error) {
	var resp models.DispatchResponse
	err := d.withRobot(ctx, robotID, func(robot models.Robot) error {
		position, err := d.stores.Positions.Get(ctx, positionID)
		if err != nil {
			return err
		}
		if _, err := d.movementOf(ctx, robot, position.MovementID); err != nil {
			return err
		}

		resp, err = d.send(ctx, robot, []Command{FromPosition(position)})
		return err
	})
	return resp, models.Wrap("dispatch.move_to_position", "robot "+robotID, positionID, err)
}

// MoveToInitialPosition sends the robot's stored initial position.
func (d *Dispatcher) MoveToInitialPosition(ctx context.Context, robotID string) (models.DispatchResponse, error) {
	var resp models.DispatchResponse
	err := d.withRobot(ctx, robotID, func(robot models.Robot) error {
		if robot.InitialPosition == nil {
			return fmt.Errorf("%w: robot %s has no initial position", models.ErrNotFound, robot.Botname)
		}

		var err error
		resp, err = d.send(ctx, robot, []Command{FromSnapshot(*robot.InitialPosition)})
		return err
	})
	return resp, models.Wrap("dispatch.move_to_initial_position", "robot "+robotID, "", err)
}

// MoveToSnapshot sends an arbitrary pose, checked against the robot's servos.
func (d *Dispatcher) MoveToSnapshot(ctx context.Context, robotID string, snap models.PositionSnapshot) (models.DispatchResponse, error) {
	var resp models.DispatchResponse
	err := d.withRobot(ctx, robotID, func(robot models.Robot) error {
		servos, err := d.stores.Servos.TotalServos(ctx, robot.ID)
		if err != nil {
			return err
		}
		if err := snap.Validate(servos); err != nil {
			return err
		}

		resp, err = d.send(ctx, robot, []Command{FromSnapshot(snap)})
		return err
	})
	return resp, models.Wrap("dispatch.move_to_snapshot", "robot "+robotID, "", err)
}

// send publishes commands and then records the last one as the robot's
// current position. A failed publish leaves the robot untouched.
func (d *Dispatcher) send(ctx context.Context, robot models.Robot, commands []Command) (models.DispatchResponse, error) {
	if len(commands) == 0 {
		return models.DispatchResponse{}, fmt.Errorf("%w: no commands to send", models.ErrEmptyInput)
	}

	if err := d.checkAngles(ctx, robot, commands); err != nil {
		return models.DispatchResponse{}, err
	}

	topic := PositionsTopic(robot.UniqueUID)
	if err := d.publish(ctx, robot, topic, commands); err != nil {
		return models.DispatchResponse{}, err
	}

	last := commands[len(commands)-1]
	if err := d.stores.Robots.SetCurrentPosition(ctx, robot.ID, last.Snapshot()); err != nil {
		return models.DispatchResponse{}, err
	}

	return models.DispatchResponse{Topic: topic, Commands: len(commands)}, nil
}

func (d *Dispatcher) publish(ctx context.Context, robot models.Robot, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if len(payload) > d.cfg.MaxPayloadBytes {
		return fmt.Errorf("%w: payload of %s exceeds the %s the robot accepts", models.ErrValidation,
			humanize.Bytes(uint64(len(payload))), humanize.Bytes(uint64(d.cfg.MaxPayloadBytes)))
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.cfg.PublishTimeout)
	defer cancel()

	start := time.Now()
	if err := d.pub.Publish(pubCtx, topic, payload); err != nil {
		slog.Error("failed to publish", "robot_id", robot.ID, "topic", topic, "error", err)
		return fmt.Errorf("%w: %w", models.ErrDispatch, err)
	}

	slog.Info("published",
		"robot_id", robot.ID,
		"topic", topic,
		"size", humanize.Bytes(uint64(len(payload))),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// checkAngles rejects poses stored for a different servo layout than the
// robot has now.
func (d *Dispatcher) checkAngles(ctx context.Context, robot models.Robot, commands []Command) error {
	servos, err := d.stores.Servos.TotalServos(ctx, robot.ID)
	if err != nil {
		return err
	}
	if servos == 0 {
		return nil
	}
	for i, c := range commands {
		if len(c.Angles) != servos {
			return fmt.Errorf("%w: pose %d has %d angles but robot %s has %d servos",
				models.ErrInvalidState, i+1, len(c.Angles), robot.Botname, servos)
		}
	}
	return nil
}

// withRobot loads the robot while holding its lock. fn must not call
// anything that takes the same key.
func (d *Dispatcher) withRobot(ctx context.Context, robotID string, fn func(robot models.Robot) error) error {
	unlock, err := d.locks.Lock(ctx, "robot:"+robotID)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrDispatch, err)
	}
	defer unlock()

	robot, err := d.stores.Robots.Get(ctx, robotID)
	if err != nil {
		return err
	}
	return fn(robot)
}

// movementOf loads a movement and checks it belongs to robot.
func (d *Dispatcher) movementOf(ctx context.Context, robot models.Robot, movementID string) (models.Movement, error) {
	movement, err := d.stores.Movements.Get(ctx, movementID)
	if err != nil {
		return movement, err
	}
	if movement.RobotID != robot.ID {
		return movement, fmt.Errorf("%w: movement %s on robot %s", models.ErrNotFound, movementID, robot.ID)
	}
	return movement, nil
}
