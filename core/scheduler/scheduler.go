// Package scheduler triggers the orchestrator's reconciliation sweep on a
// fixed interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/jwhan-dev/robofleet/core/logger"
)

// Reconciler is the sweep entry point the scheduler drives. It must be safe
// to call while a previous sweep is still running; the implementation
// suppresses the overlap.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Scheduler runs the reconciliation sweep periodically.
type Scheduler struct {
	interval time.Duration
	target   Reconciler
	log      logger.Logger
}

// New creates a Scheduler. Interval must be positive.
func New(interval time.Duration, target Reconciler, log logger.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("scheduler: interval must be positive")
	}
	if target == nil {
		return nil, errors.New("scheduler: reconciler is required")
	}
	return &Scheduler{interval: interval, target: target, log: log}, nil
}

// Run blocks, sweeping on every tick until the context is canceled. Sweep
// errors are logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := s.target.Reconcile(ctx)
			if err != nil {
				s.log.Errorf("reconcile sweep: %v", err)
				continue
			}
			if n > 0 {
				s.log.Debugf("reconcile sweep processed %d tasks", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
