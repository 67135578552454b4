package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwhan-dev/robofleet/core/link"
	"github.com/jwhan-dev/robofleet/core/logger"
	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/core/store"
)

// Dispatcher selects the best idle robot for a target position and performs
// the atomic claim that ties it to a task. All robot mutations flow through
// here or through telemetry ingestion.
type Dispatcher struct {
	robots       store.RobotStore
	tasks        store.TaskStore
	link         link.RobotLink
	log          logger.Logger
	minBattery   float64
	storeTimeout time.Duration
	linkTimeout  time.Duration
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(robots store.RobotStore, tasks store.TaskStore, rl link.RobotLink, cfg Config, log logger.Logger) (*Dispatcher, error) {
	if robots == nil || tasks == nil || rl == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewDispatcher")
	}
	cfg.SetDefaults()
	return &Dispatcher{
		robots:       robots,
		tasks:        tasks,
		link:         rl,
		log:          log,
		minBattery:   cfg.BatteryThreshold,
		storeTimeout: time.Duration(cfg.StoreTimeoutSeconds) * time.Second,
		linkTimeout:  time.Duration(cfg.LinkTimeoutSeconds) * time.Second,
	}, nil
}

// Select returns the idle robot with sufficient battery closest to target.
// Ties resolve to the lowest robot id so repeated runs pick the same robot.
// The second return value is false when no robot qualifies; that is a normal
// no-capacity outcome, not an error.
func (d *Dispatcher) Select(ctx context.Context, target model.Position) (model.Robot, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()
	candidates, err := d.robots.ListIdleAboveBattery(ctx, d.minBattery)
	if err != nil {
		return model.Robot{}, false, fmt.Errorf("list idle robots: %w", err)
	}
	if len(candidates) == 0 {
		return model.Robot{}, false, nil
	}
	best := candidates[0]
	bestDist := best.Position.DistanceTo(target)
	for _, r := range candidates[1:] {
		dist := r.Position.DistanceTo(target)
		if dist < bestDist || (dist == bestDist && r.ID < best.ID) {
			best = r
			bestDist = dist
		}
	}
	d.log.Debugw("robot selected", map[string]any{
		"robot_id": best.ID,
		"distance": bestDist,
	})
	return best, true, nil
}

// ClaimAndAssign atomically transitions the robot IDLE to MOVING with the
// task attached, then hands the derived action sequence to the robot link.
// Losing the claim race returns ErrConflict. A link failure rolls the claim
// back and returns a LinkDeliveryError so the robot is never left MOVING with
// nothing in flight.
func (d *Dispatcher) ClaimAndAssign(ctx context.Context, robot model.Robot, task model.Task) (model.Robot, error) {
	taskID := task.ID
	sctx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	ok, err := d.robots.CompareAndSetStatus(sctx, robot.ID, model.RobotIdle, model.RobotMoving, store.RobotUpdate{TaskID: &taskID})
	cancel()
	if err != nil {
		return model.Robot{}, fmt.Errorf("claim robot %s: %w", robot.ID, err)
	}
	if !ok {
		claimConflicts.Inc()
		return model.Robot{}, ErrConflict
	}

	seq := model.DeriveActions(task)
	lctx, cancel := context.WithTimeout(ctx, d.linkTimeout)
	err = d.link.SendActionSequence(lctx, robot.Name, seq)
	cancel()
	if err != nil {
		linkFailure.Inc()
		d.log.Errorf("delivery to robot %s failed, reverting claim: %v", robot.ID, err)
		d.release(ctx, robot.ID, task.ID)
		return model.Robot{}, &LinkDeliveryError{Robot: robot.ID, Cause: err}
	}
	linkSuccess.Inc()

	robot.Status = model.RobotMoving
	robot.CurrentTaskID = task.ID
	d.log.Infof("robot %s claimed for task %s", robot.ID, task.ID)
	return robot, nil
}

// release reverts a claim, returning the robot to IDLE with no task. Used
// after link failures and operator cancels; best-effort because telemetry may
// legitimately have moved the robot on in the meantime.
func (d *Dispatcher) release(ctx context.Context, robotID, taskID string) {
	ctx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()
	for attempt := 0; attempt < 2; attempt++ {
		r, err := d.robots.Get(ctx, robotID)
		if err != nil || r.CurrentTaskID != taskID {
			return
		}
		clear := ""
		ok, err := d.robots.CompareAndSetStatus(ctx, robotID, r.Status, model.RobotIdle, store.RobotUpdate{TaskID: &clear})
		if err != nil || ok {
			return
		}
	}
	d.log.Warnf("could not release robot %s from task %s", robotID, taskID)
}

// IngestTelemetry applies a robot self-report: last writer wins by arrival
// order. A robot reporting IDLE while it still owned a task marks that task
// COMPLETED and clears the ownership. The completed task, if any, is returned
// alongside the updated robot so the caller can broadcast both.
func (d *Dispatcher) IngestTelemetry(ctx context.Context, robotID string, status model.RobotStatus, pos model.Position, battery float64) (model.Robot, *model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	prev, err := d.robots.Get(ctx, robotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Robot{}, nil, fmt.Errorf("%w: robot %s", ErrNotFound, robotID)
		}
		return model.Robot{}, nil, fmt.Errorf("get robot %s: %w", robotID, err)
	}

	upd := store.RobotUpdate{Status: &status, Battery: &battery, Position: &pos}
	var completed *model.Task
	if status == model.RobotIdle && prev.CurrentTaskID != "" {
		clear := ""
		upd.TaskID = &clear
		if t, err := d.completeTask(ctx, prev.CurrentTaskID); err != nil {
			d.log.Warnf("completing task %s from telemetry: %v", prev.CurrentTaskID, err)
		} else if t != nil {
			completed = t
		}
	}
	robot, err := d.robots.Update(ctx, robotID, upd)
	if err != nil {
		return model.Robot{}, nil, fmt.Errorf("update robot %s: %w", robotID, err)
	}
	return robot, completed, nil
}

// completeTask advances the referenced task to COMPLETED. A task that is gone
// or already terminal is left alone.
func (d *Dispatcher) completeTask(ctx context.Context, taskID string) (*model.Task, error) {
	t, err := d.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !t.Status.CanTransitionTo(model.TaskCompleted) {
		return nil, nil
	}
	done := model.TaskCompleted
	stamp := true
	updated, err := d.tasks.Update(ctx, taskID, store.TaskUpdate{Status: &done, CompletedAt: &stamp})
	if err != nil {
		return nil, err
	}
	tasksCompleted.Inc()
	d.log.Infof("task %s completed by robot self-report", taskID)
	return &updated, nil
}
