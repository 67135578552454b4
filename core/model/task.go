package model

import "time"

// TaskType defines the kind of work requested from the fleet.
type TaskType string

const (
	SnackDelivery TaskType = "SNACK_DELIVERY"
	ItemDelivery  TaskType = "ITEM_DELIVERY"
	GuideGuest    TaskType = "GUIDE_GUEST"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case SnackDelivery, ItemDelivery, GuideGuest:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task. Transitions only move forward:
// PENDING -> ASSIGNED -> IN_PROGRESS -> COMPLETED, with FAILED and CANCELED as
// alternative terminal states reachable from any non-terminal state.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskAssigned   TaskStatus = "ASSIGNED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
	TaskCanceled   TaskStatus = "CANCELED"
)

// Terminal reports whether no further transition is allowed from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCanceled
}

// rank orders the forward progression of the lifecycle. Terminal states share
// the highest rank so no terminal state can replace another.
func (s TaskStatus) rank() int {
	switch s {
	case TaskPending:
		return 0
	case TaskAssigned:
		return 1
	case TaskInProgress:
		return 2
	case TaskCompleted, TaskFailed, TaskCanceled:
		return 3
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next respects the
// forward-only lifecycle.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Details is the opaque request payload attached to a task. The engine treats
// it as a key/value bag; known keys are projected into typed parameters right
// before action derivation.
type Details map[string]any

// Task is a unit of fleet work requested by a user.
type Task struct {
	ID          string     `json:"id"`
	Type        TaskType   `json:"task_type"`
	Status      TaskStatus `json:"status"`
	RequesterID string     `json:"requester_id"`
	RobotID     string     `json:"robot_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Details     Details    `json:"details,omitempty"`
}

// position reads a {"x": .., "y": ..} sub-map from the details bag, returning
// fallback when the key is missing or malformed.
func (d Details) position(key string, fallback Position) Position {
	raw, ok := d[key]
	if !ok {
		return fallback
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return fallback
	}
	p := fallback
	if x, ok := toFloat(m["x"]); ok {
		p.X = x
	}
	if y, ok := toFloat(m["y"]); ok {
		p.Y = y
	}
	return p
}

func (d Details) str(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Destination returns the task target position, defaulting to the origin when
// the request did not carry one. It is the position robot selection ranks
// candidates against.
func (t Task) Destination() Position {
	return t.Details.position("destination", Position{})
}
