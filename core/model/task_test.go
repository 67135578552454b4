package model

import "testing"

func TestTaskStatusForwardOnly(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		ok       bool
	}{
		{TaskPending, TaskAssigned, true},
		{TaskPending, TaskFailed, true},
		{TaskAssigned, TaskCompleted, true},
		{TaskAssigned, TaskPending, false},
		{TaskInProgress, TaskAssigned, false},
		{TaskCompleted, TaskFailed, false},
		{TaskCanceled, TaskAssigned, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: expected %v got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestTaskDestinationDefaultsToOrigin(t *testing.T) {
	task := Task{Type: GuideGuest}
	if d := task.Destination(); d.X != 0 || d.Y != 0 {
		t.Fatalf("expected origin got %+v", d)
	}
	task.Details = Details{"destination": map[string]any{"x": 3.0, "y": 4.5}}
	if d := task.Destination(); d.X != 3 || d.Y != 4.5 {
		t.Fatalf("expected (3,4.5) got %+v", d)
	}
}

func TestPositionDistance(t *testing.T) {
	a := Position{X: 0, Y: 0}
	b := Position{X: 3, Y: 4}
	if d := a.DistanceTo(b); d != 5 {
		t.Fatalf("expected 5 got %v", d)
	}
}
