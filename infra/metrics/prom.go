package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/jwhan-dev/robofleet/core/metrics"
)

// PromSink records assignment events in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	battery     *prometheus.GaugeVec
	backlog     prometheus.Gauge
}

// NewPromSink registers fleet metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_events_total",
		Help: "Total number of settled assignment attempts",
	}, []string{"task_type", "assigned"})
	battery := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "robot_battery_percent",
		Help: "Last reported battery level per robot",
	}, []string{"robot_id"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pending_tasks_last_sweep",
		Help: "Pending tasks observed by the last reconciliation sweep",
	})

	if err := reg.Register(assignments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			assignments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(battery); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			battery = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(backlog); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			backlog = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{assignments: assignments, battery: battery, backlog: backlog}, nil
}

// RecordAssignment increments the counter for the settled attempt.
func (s *PromSink) RecordAssignment(res coremetrics.AssignmentResult) error {
	s.assignments.WithLabelValues(string(res.TaskType), strconv.FormatBool(res.Assigned)).Inc()
	return nil
}

// RecordRobotState tracks per-robot battery levels.
func (s *PromSink) RecordRobotState(ev coremetrics.RobotStateEvent) error {
	s.battery.WithLabelValues(ev.Robot.ID).Set(ev.Robot.Battery)
	return nil
}

// RecordReconcile tracks the backlog size per sweep.
func (s *PromSink) RecordReconcile(ev coremetrics.ReconcileEvent) error {
	s.backlog.Set(float64(ev.Pending))
	return nil
}
