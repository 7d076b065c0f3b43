// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package command

import (
	"context"
	"fmt"

	"github.com/servo-sync-project/servo-sync-api/models"
)

// The robot keeps a copy of movements in its own flash so it can replay
// them offline. These calls only publish; nothing is written locally.

type storedMovement struct {
	Name      string    `json:"name"`
	Positions []Command `json:"positions"`
}

type saveMovementPayload struct {
	InitialPosition models.PositionSnapshot `json:"initial_position"`
	Movement        storedMovement          `json:"movement"`
}

type deleteMovementPayload struct {
	Name string `json:"name"`
}

// SaveMovement copies a movement, with the robot's initial position, onto
// the robot.
func (d *Dispatcher) SaveMovement(ctx context.Context, robotID, movementID string) (models.DispatchResponse, error) {
	var resp models.DispatchResponse
	err := d.withRobot(ctx, robotID, func(robot models.Robot) error {
		if robot.InitialPosition == nil {
			return fmt.Errorf("%w: set an initial position before storing movements on the robot", models.ErrInvalidState)
		}

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
		if err := d.checkAngles(ctx, robot, append([]Command{FromSnapshot(*robot.InitialPosition)}, commands...)); err != nil {
			return err
		}

		topic := StorageTopic(robot.UniqueUID, StorageSaveMovement)
		payload := saveMovementPayload{
			InitialPosition: *robot.InitialPosition,
			Movement:        storedMovement{Name: movement.Name, Positions: commands},
		}
		if err := d.publish(ctx, robot, topic, payload); err != nil {
			return err
		}
		resp = models.DispatchResponse{Topic: topic, Commands: len(commands)}
		return nil
	})
	return resp, models.Wrap("storage.save_movement", "robot "+robotID, movementID, err)
}

// DeleteMovement removes a movement from the robot's storage by name.
func (d *Dispatcher) DeleteMovement(ctx context.Context, robotID, movementID string) (models.DispatchResponse, error) {
	var resp models.DispatchResponse
	err := d.withRobot(ctx, robotID, func(robot models.Robot) error {
		movement, err := d.movementOf(ctx, robot, movementID)
		if err != nil {
			return err
		}

		topic := StorageTopic(robot.UniqueUID, StorageDeleteMovement)
		if err := d.publish(ctx, robot, topic, deleteMovementPayload{Name: movement.Name}); err != nil {
			return err
		}
		resp = models.DispatchResponse{Topic: topic}
		return nil
	})
	return resp, models.Wrap("storage.delete_movement", "robot "+robotID, movementID, err)
}

// SaveInitialPosition copies the robot's initial position onto the robot.
func (d *Dispatcher) SaveInitialPosition(ctx context.Context, robotID string) (models.DispatchResponse, error) {
	var resp models.DispatchResponse
	err := d.withRobot(ctx, robotID, func(robot models.Robot) error {
		if robot.InitialPosition == nil {
			return fmt.Errorf("%w: robot %s has no initial position", models.ErrNotFound, robot.Botname)
		}
		if err := d.checkAngles(ctx, robot, []Command{FromSnapshot(*robot.InitialPosition)}); err != nil {
			return err
		}

		topic := StorageTopic(robot.UniqueUID, StorageSaveInitialPosition)
		if err := d.publish(ctx, robot, topic, robot.InitialPosition); err != nil {
			return err
		}
		resp = models.DispatchResponse{Topic: topic, Commands: 1}
		return nil
	})
	return resp, models.Wrap("storage.save_initial_position", "robot "+robotID, "", err)
}

// ClearStorage wipes everything the robot stored.
func (d *Dispatcher) ClearStorage(ctx context.Context, robotID string) (models.DispatchResponse, error) {
	var resp models.DispatchResponse
	err := d.withRobot(ctx, robotID, func(robot models.Robot) error {
		topic := StorageTopic(robot.UniqueUID, StorageClear)
		if err := d.publish(ctx, robot, topic, struct{}{}); err != nil {
			return err
		}
		resp = models.DispatchResponse{Topic: topic}
		return nil
	})
	return resp, models.Wrap("storage.clear", "robot "+robotID, "", err)
}
