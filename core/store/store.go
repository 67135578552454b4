// Package store defines the persistence contracts the dispatch engine is
// written against. Implementations must make CompareAndSetStatus atomic: it is
// the only serialization point protecting robots from double assignment.
package store

import (
	"context"
	"errors"

	"github.com/jwhan-dev/robofleet/core/model"
)

// ErrNotFound is returned when a referenced robot or task does not exist.
var ErrNotFound = errors.New("store: record not found")

// RobotUpdate lists the robot fields a caller may overwrite. Nil fields are
// left untouched.
type RobotUpdate struct {
	Status   *model.RobotStatus
	Battery  *float64
	Position *model.Position
	// TaskID replaces CurrentTaskID when non-nil; an empty string clears it.
	TaskID *string
}

// RobotStore is the durable robot state the engine queries and mutates.
type RobotStore interface {
	// Get returns the robot or ErrNotFound.
	Get(ctx context.Context, id string) (model.Robot, error)
	// List returns every registered robot ordered by id.
	List(ctx context.Context) ([]model.Robot, error)
	// ListIdleAboveBattery returns robots with status IDLE and battery
	// strictly above the threshold, ordered by id.
	ListIdleAboveBattery(ctx context.Context, threshold float64) ([]model.Robot, error)
	// CompareAndSetStatus transitions the robot from expected to next and
	// applies extra in the same atomic step. It returns false without error
	// when the robot was no longer in the expected status.
	CompareAndSetStatus(ctx context.Context, id string, expected, next model.RobotStatus, extra RobotUpdate) (bool, error)
	// Update overwrites the given fields unconditionally and returns the
	// resulting record.
	Update(ctx context.Context, id string, upd RobotUpdate) (model.Robot, error)
	// Register inserts a new robot record.
	Register(ctx context.Context, r model.Robot) error
}

// TaskUpdate lists the task fields a caller may overwrite.
type TaskUpdate struct {
	Status      *model.TaskStatus
	RobotID     *string
	CompletedAt *bool // set CompletedAt to now when true
}

// TaskStore is the durable task state. Tasks are never deleted; terminal
// records stay for audit.
type TaskStore interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	// Get returns the task or ErrNotFound.
	Get(ctx context.Context, id string) (model.Task, error)
	// Update overwrites the given fields and returns the resulting record,
	// or ErrNotFound when the task vanished.
	Update(ctx context.Context, id string, upd TaskUpdate) (model.Task, error)
	// ListByStatus returns tasks in the given status ordered by creation
	// time ascending.
	ListByStatus(ctx context.Context, s model.TaskStatus) ([]model.Task, error)
}
