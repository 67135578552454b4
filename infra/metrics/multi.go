package metrics

import (
	"errors"

	coremetrics "github.com/jwhan-dev/robofleet/core/metrics"
)

// MultiSink fans events out to several sinks. Errors are joined so that one
// failing backend does not hide the others.
type MultiSink struct {
	sinks []coremetrics.MetricsSink
}

// NewMultiSink builds a fan-out over the given sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordAssignment forwards the result to every sink.
func (m *MultiSink) RecordAssignment(res coremetrics.AssignmentResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordAssignment(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRobotState forwards the event to sinks that implement
// RobotStateRecorder.
func (m *MultiSink) RecordRobotState(ev coremetrics.RobotStateEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if rec, ok := s.(coremetrics.RobotStateRecorder); ok {
			if err := rec.RecordRobotState(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordReconcile forwards the event to sinks that implement
// ReconcileRecorder.
func (m *MultiSink) RecordReconcile(ev coremetrics.ReconcileEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if rec, ok := s.(coremetrics.ReconcileRecorder); ok {
			if err := rec.RecordReconcile(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
