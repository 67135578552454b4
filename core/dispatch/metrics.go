package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksAssigned    *prometheus.CounterVec
	claimConflicts   prometheus.Counter
	linkSuccess      prometheus.Counter
	linkFailure      prometheus.Counter
	tasksCompleted   prometheus.Counter
	reconcileSeconds prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Histogram) {
	assigned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_assigned_total",
			Help: "Number of tasks assigned to robots",
		},
		[]string{"task_type"},
	)
	conflicts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "robot_claim_conflicts_total",
			Help: "Number of robot claims lost to a concurrent caller",
		},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_delivery_success_total",
			Help: "Number of action sequences delivered to robots",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_delivery_failure_total",
			Help: "Number of action sequence deliveries that failed",
		},
	)
	completed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tasks_completed_total",
			Help: "Number of tasks completed via robot self-report",
		},
	)
	rec := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_sweep_duration_seconds",
			Help:    "Duration of reconciliation sweeps over pending tasks",
			Buckets: prometheus.DefBuckets,
		},
	)
	return assigned, conflicts, suc, fail, completed, rec
}

func init() {
	tasksAssigned, claimConflicts, linkSuccess, linkFailure, tasksCompleted, reconcileSeconds = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(tasksAssigned, claimConflicts, linkSuccess, linkFailure, tasksCompleted, reconcileSeconds)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	tasksAssigned, claimConflicts, linkSuccess, linkFailure, tasksCompleted, reconcileSeconds = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
