package metrics

import (
	"testing"

	coremetrics "github.com/jwhan-dev/robofleet/core/metrics"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordAssignment(coremetrics.AssignmentResult) error {
	r.count++
	return nil
}

func (r *recordSink) RecordRobotState(coremetrics.RobotStateEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordReconcile(coremetrics.ReconcileEvent) error {
	r.count++
	return nil
}

type assignOnlySink struct {
	count int
}

func (a *assignOnlySink) RecordAssignment(coremetrics.AssignmentResult) error {
	a.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordAssignment(coremetrics.AssignmentResult{}); err != nil {
		t.Fatalf("record assignment: %v", err)
	}
	if err := m.RecordRobotState(coremetrics.RobotStateEvent{}); err != nil {
		t.Fatalf("record robot state: %v", err)
	}
	if err := m.RecordReconcile(coremetrics.ReconcileEvent{}); err != nil {
		t.Fatalf("record reconcile: %v", err)
	}
	if s1.count != 3 || s2.count != 3 {
		t.Fatalf("events not forwarded: %d %d", s1.count, s2.count)
	}
}

func TestMultiSink_SkipsNonRecorders(t *testing.T) {
	s := &assignOnlySink{}
	m := NewMultiSink(s)
	if err := m.RecordRobotState(coremetrics.RobotStateEvent{}); err != nil {
		t.Fatalf("record robot state: %v", err)
	}
	if s.count != 0 {
		t.Fatalf("assignment-only sink received a state event")
	}
}
