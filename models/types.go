package models

import "fmt"

// Collection limits
const (
	MaxRobotsPerUser        = 2
	MaxMovementsPerRobot    = 10
	MaxPositionsPerMovement = 16
	MaxServosPerRobot       = 24
)

// Position value ranges
const (
	MinDelay = 100
	MaxDelay = 1000
	MinAngle = 0
	MaxAngle = 180
)

// Movement grid bounds
const (
	MinCoordX = 1
	MaxCoordX = 9
	MinCoordY = 1
	MaxCoordY = 4
)

// Column is the side of the robot a servo group is mounted on.
type Column string

const (
	ColumnLeft   Column = "left"
	ColumnMiddle Column = "middle"
	ColumnRight  Column = "right"
)

func (c Column) Valid() bool {
	switch c {
	case ColumnLeft, ColumnMiddle, ColumnRight:
		return true
	}
	return false
}

// Domain types

// PositionSnapshot is a stored pose, independent of any position row.
type PositionSnapshot struct {
	Delay  int   `json:"delay"`
	Angles []int `json:"angles"`
}

// Validate checks delay and angle ranges. servoCount of zero skips the length check.
func (p PositionSnapshot) Validate(servoCount int) error {
	if p.Delay < MinDelay || p.Delay > MaxDelay {
		return fmt.Errorf("%w: delay must be between %d and %d", ErrValidation, MinDelay, MaxDelay)
	}
	if len(p.Angles) == 0 {
		return fmt.Errorf("%w: angles cannot be empty", ErrValidation)
	}
	for _, a := range p.Angles {
		if a < MinAngle || a > MaxAngle {
			return fmt.Errorf("%w: each angle must be between %d and %d", ErrValidation, MinAngle, MaxAngle)
		}
	}
	if servoCount > 0 && len(p.Angles) != servoCount {
		return fmt.Errorf("%w: expected %d angles, got %d", ErrValidation, servoCount, len(p.Angles))
	}
	return nil
}

type Robot struct {
	ID                string            `json:"id"`
	UniqueUID         string            `json:"unique_uid"`
	Botname           string            `json:"botname"`
	Description       string            `json:"description"`
	InitialPosition   *PositionSnapshot `json:"initial_position,omitempty"`
	CurrentPosition   *PositionSnapshot `json:"current_position,omitempty"`
	IsConnectedBroker bool              `json:"is_connected_broker"`
	UserID            string            `json:"-"`
}

type ServoGroup struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NumServos int    `json:"num_servos"`
	Column    Column `json:"column"`
	Sequence  int    `json:"sequence"`
	RobotID   string `json:"robot_id"`
}

// ServoGroupKey identifies the group a servo group is ranked in.
type ServoGroupKey struct {
	RobotID string
	Column  Column
}

func (k ServoGroupKey) String() string {
	return fmt.Sprintf("robot %s column %s", k.RobotID, k.Column)
}

type Coordinates struct {
	X int `json:"coord_x"`
	Y int `json:"coord_y"`
}

func (c Coordinates) Validate() error {
	if c.X < MinCoordX || c.X > MaxCoordX {
		return fmt.Errorf("%w: coord_x must be between %d and %d", ErrValidation, MinCoordX, MaxCoordX)
	}
	if c.Y < MinCoordY || c.Y > MaxCoordY {
		return fmt.Errorf("%w: coord_y must be between %d and %d", ErrValidation, MinCoordY, MaxCoordY)
	}
	return nil
}

type Movement struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	RobotID     string       `json:"robot_id"`
}

type Position struct {
	ID         string `json:"id"`
	Delay      int    `json:"delay"`
	Angles     []int  `json:"angles"`
	Sequence   int    `json:"sequence"`
	MovementID string `json:"movement_id"`
}

// Snapshot returns the pose stored in the position.
func (p Position) Snapshot() PositionSnapshot {
	return PositionSnapshot{Delay: p.Delay, Angles: p.Angles}
}

type MovementWithPositions struct {
	Movement  Movement   `json:"movement"`
	Positions []Position `json:"positions"`
}

// Request types

type CreateRobotRequest struct {
	Botname     string `json:"botname"`
	Description string `json:"description"`
}

type UpdateRobotRequest struct {
	Botname     string `json:"botname"`
	Description string `json:"description"`
}

type UpdateInitialPositionRequest struct {
	InitialPosition PositionSnapshot `json:"initial_position"`
}

type UpdateCurrentPositionRequest struct {
	CurrentPosition PositionSnapshot `json:"current_position"`
}

type CreateServoGroupRequest struct {
	Name      string `json:"name"`
	NumServos int    `json:"num_servos"`
	Column    Column `json:"column"`
	RobotID   string `json:"robot_id"`
}

type UpdateServoGroupRequest struct {
	Name      string `json:"name"`
	NumServos int    `json:"num_servos"`
}

type CreateMovementRequest struct {
	Name        string       `json:"name"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	RobotID     string       `json:"robot_id"`
}

type UpdateMovementRequest struct {
	Name        string       `json:"name"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type CreatePositionRequest struct {
	Delay      int    `json:"delay"`
	Angles     []int  `json:"angles"`
	MovementID string `json:"movement_id"`
}

type UpdatePositionRequest struct {
	Delay  int   `json:"delay"`
	Angles []int `json:"angles"`
}

// Response types

type DeleteResponse struct {
	IsDeleted bool `json:"is_deleted"`
}

type DispatchResponse struct {
	Topic    string `json:"topic"`
	Commands int    `json:"commands"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
