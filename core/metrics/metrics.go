package metrics

import (
	"time"

	"github.com/jwhan-dev/robofleet/core/model"
)

// AssignmentResult represents one settled task-to-robot assignment attempt.
type AssignmentResult struct {
	TaskID   string
	TaskType model.TaskType
	RobotID  string
	Assigned bool
	Time     time.Time
}

// MetricsSink records assignment outcomes for observability purposes.
type MetricsSink interface {
	RecordAssignment(res AssignmentResult) error
}

// RobotStateEvent is a snapshot of a robot taken after telemetry ingestion.
type RobotStateEvent struct {
	Robot     model.Robot
	Component string
	Time      time.Time
}

// RobotStateRecorder records robot state snapshots.
type RobotStateRecorder interface {
	RecordRobotState(ev RobotStateEvent) error
}

// ReconcileEvent captures one reconciliation sweep.
type ReconcileEvent struct {
	Pending  int
	Assigned int
	Duration time.Duration
	Time     time.Time
}

// ReconcileRecorder records reconciliation sweeps.
type ReconcileRecorder interface {
	RecordReconcile(ev ReconcileEvent) error
}

// NopSink discards all metrics.
type NopSink struct{}

// RecordAssignment implements MetricsSink.
func (NopSink) RecordAssignment(AssignmentResult) error { return nil }

// RecordRobotState implements RobotStateRecorder.
func (NopSink) RecordRobotState(RobotStateEvent) error { return nil }

// RecordReconcile implements ReconcileRecorder.
func (NopSink) RecordReconcile(ReconcileEvent) error { return nil }
