package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwhan-dev/robofleet/core/model"
)

// MockLink is a robot link used in tests: it records sequences instead of
// publishing them.
type MockLink struct {
	mu        sync.Mutex
	Sequences map[string]model.ActionSequence
	FailNames map[string]bool
}

// NewMockLink creates a new MockLink.
func NewMockLink() *MockLink {
	return &MockLink{
		Sequences: make(map[string]model.ActionSequence),
		FailNames: make(map[string]bool),
	}
}

// SendActionSequence records the sequence or fails when configured to.
func (m *MockLink) SendActionSequence(_ context.Context, robotName string, seq model.ActionSequence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNames[robotName] {
		return fmt.Errorf("publish failed")
	}
	m.Sequences[robotName] = seq
	return nil
}

// Sent returns the last sequence delivered to the robot.
func (m *MockLink) Sent(robotName string) (model.ActionSequence, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, ok := m.Sequences[robotName]
	return seq, ok
}
