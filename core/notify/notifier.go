// Package notify fans state snapshots out to connected observers.
package notify

import (
	"sync"

	"github.com/jwhan-dev/robofleet/core/logger"
	"github.com/jwhan-dev/robofleet/core/model"
)

// SnapshotKind tags which record a snapshot carries.
type SnapshotKind string

const (
	KindRobot SnapshotKind = "robot"
	KindTask  SnapshotKind = "task"
)

// Snapshot is one committed state change pushed to observers.
type Snapshot struct {
	Kind  SnapshotKind `json:"kind"`
	Robot *model.Robot `json:"robot,omitempty"`
	Task  *model.Task  `json:"task,omitempty"`
}

// RobotSnapshot wraps a robot record for broadcast.
func RobotSnapshot(r model.Robot) Snapshot { return Snapshot{Kind: KindRobot, Robot: &r} }

// TaskSnapshot wraps a task record for broadcast.
func TaskSnapshot(t model.Task) Snapshot { return Snapshot{Kind: KindTask, Task: &t} }

// Observer receives snapshots. A failed Send marks the observer disconnected.
type Observer interface {
	Send(Snapshot) error
}

// Notifier is the broadcast surface the engine calls after every committed,
// externally observable state change.
type Notifier interface {
	Broadcast(Snapshot)
}

// Hub implements Notifier over a dynamic observer set. Delivery is
// best-effort and isolated per observer: one failing observer is dropped from
// the set without affecting the others, and broadcasting never feeds an error
// back into the engine.
type Hub struct {
	mu        sync.Mutex
	observers map[int]Observer
	nextID    int
	log       logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{observers: map[int]Observer{}, log: log}
}

// Attach registers an observer and returns a handle for Detach.
func (h *Hub) Attach(o Observer) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.observers[id] = o
	return id
}

// Detach removes the observer with the given handle.
func (h *Hub) Detach(id int) {
	h.mu.Lock()
	delete(h.observers, id)
	h.mu.Unlock()
}

// Len returns the number of attached observers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Broadcast delivers the snapshot to every observer. Observers whose Send
// fails are removed from the set, treated as disconnected.
func (h *Hub) Broadcast(s Snapshot) {
	h.mu.Lock()
	targets := make(map[int]Observer, len(h.observers))
	for id, o := range h.observers {
		targets[id] = o
	}
	h.mu.Unlock()

	var failed []int
	for id, o := range targets {
		if err := o.Send(s); err != nil {
			if h.log != nil {
				h.log.Warnf("observer %d dropped: %v", id, err)
			}
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		h.mu.Lock()
		for _, id := range failed {
			delete(h.observers, id)
		}
		h.mu.Unlock()
	}
}

// NopNotifier discards all snapshots.
type NopNotifier struct{}

func (NopNotifier) Broadcast(Snapshot) {}
