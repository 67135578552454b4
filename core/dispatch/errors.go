package dispatch

import (
	"errors"
	"fmt"
)

// ErrConflict signals that a robot claim lost a race against a concurrent
// caller. It is retried internally up to a bound and then treated as lack of
// capacity, never masked as success.
var ErrConflict = errors.New("dispatch: robot claimed concurrently")

// ErrNotFound signals that a referenced robot or task does not exist.
var ErrNotFound = errors.New("dispatch: record not found")

// LinkDeliveryError reports that an action sequence could not be handed to a
// robot. The claim is rolled back before the error is returned.
type LinkDeliveryError struct {
	Robot string
	Cause error
}

func (e *LinkDeliveryError) Error() string {
	return fmt.Sprintf("dispatch: delivery to robot %s failed: %v", e.Robot, e.Cause)
}

func (e *LinkDeliveryError) Unwrap() error { return e.Cause }

// AssignmentError wraps a failure escaping an assignment attempt. It carries
// the task id so callers can surface or requeue the task.
type AssignmentError struct {
	TaskID string
	Cause  error
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("dispatch: assignment of task %s failed: %v", e.TaskID, e.Cause)
}

func (e *AssignmentError) Unwrap() error { return e.Cause }
