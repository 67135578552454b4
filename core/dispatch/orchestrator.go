package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwhan-dev/robofleet/core/logger"
	"github.com/jwhan-dev/robofleet/core/metrics"
	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/core/notify"
	"github.com/jwhan-dev/robofleet/core/store"
)

// Orchestrator owns the task lifecycle: creation, the immediate assignment
// attempt, the periodic reconciliation of the PENDING backlog and the
// telemetry callback. Task state only ever moves forward and every committed
// change is broadcast through the notifier.
type Orchestrator struct {
	dispatcher   *Dispatcher
	tasks        store.TaskStore
	robots       store.RobotStore
	notifier     notify.Notifier
	metrics      metrics.MetricsSink
	log          logger.Logger
	claimRetries int
	storeTimeout time.Duration

	// reconciling suppresses overlapping sweeps.
	reconciling sync.Mutex
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(d *Dispatcher, tasks store.TaskStore, robots store.RobotStore, n notify.Notifier, sink metrics.MetricsSink, cfg Config, log logger.Logger) (*Orchestrator, error) {
	if d == nil || tasks == nil || robots == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewOrchestrator")
	}
	if n == nil {
		n = notify.NopNotifier{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	cfg.SetDefaults()
	return &Orchestrator{
		dispatcher:   d,
		tasks:        tasks,
		robots:       robots,
		notifier:     n,
		metrics:      sink,
		log:          log,
		claimRetries: cfg.ClaimRetries,
		storeTimeout: time.Duration(cfg.StoreTimeoutSeconds) * time.Second,
	}, nil
}

// CreateTask persists a new PENDING task and immediately attempts assignment
// once. The returned task reflects whatever state resulted; callers must not
// assume the assignment succeeded synchronously.
func (o *Orchestrator) CreateTask(ctx context.Context, taskType model.TaskType, requesterID string, details model.Details) (model.Task, error) {
	if !taskType.Valid() {
		return model.Task{}, fmt.Errorf("unknown task type %q", taskType)
	}
	task := model.Task{
		ID:          uuid.NewString(),
		Type:        taskType,
		Status:      model.TaskPending,
		RequesterID: requesterID,
		CreatedAt:   time.Now().UTC(),
		Details:     details,
	}
	sctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	task, err := o.tasks.Create(sctx, task)
	cancel()
	if err != nil {
		return model.Task{}, fmt.Errorf("persist task: %w", err)
	}
	o.log.Infof("task %s created (%s)", task.ID, task.Type)
	o.notifier.Broadcast(notify.TaskSnapshot(task))

	assigned, err := o.AttemptAssign(ctx, task)
	if err != nil {
		return task, err
	}
	if assigned != nil {
		return *assigned, nil
	}
	return task, nil
}

// AttemptAssign tries to place the task on a robot. It returns the updated
// task on success and nil when no capacity is available; the task then stays
// PENDING for the next sweep. A claim lost to a concurrent caller re-runs
// selection up to the configured retry bound. Any other failure marks the
// task FAILED and is returned as an AssignmentError.
func (o *Orchestrator) AttemptAssign(ctx context.Context, task model.Task) (*model.Task, error) {
	target := task.Destination()
	for attempt := 0; attempt <= o.claimRetries; attempt++ {
		robot, found, err := o.dispatcher.Select(ctx, target)
		if err != nil {
			return nil, o.failTask(ctx, task, err)
		}
		if !found {
			o.log.Debugf("no capacity for task %s, staying pending", task.ID)
			return nil, nil
		}

		claimed, err := o.dispatcher.ClaimAndAssign(ctx, robot, task)
		if errors.Is(err, ErrConflict) {
			o.log.Warnf("claim conflict on robot %s for task %s, retrying selection", robot.ID, task.ID)
			continue
		}
		if err != nil {
			return nil, o.failTask(ctx, task, err)
		}

		updated, err := o.markAssigned(ctx, task, claimed)
		if err != nil {
			return nil, o.failTask(ctx, task, err)
		}
		tasksAssigned.WithLabelValues(string(task.Type)).Inc()
		o.recordAssignment(updated, claimed.ID, true)
		o.notifier.Broadcast(notify.TaskSnapshot(updated))
		o.notifier.Broadcast(notify.RobotSnapshot(claimed))
		return &updated, nil
	}
	// Retries exhausted: treated as no capacity, eligible for the next sweep.
	o.recordAssignment(task, "", false)
	return nil, nil
}

func (o *Orchestrator) markAssigned(ctx context.Context, task model.Task, robot model.Robot) (model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()
	st := model.TaskAssigned
	updated, err := o.tasks.Update(ctx, task.ID, store.TaskUpdate{Status: &st, RobotID: &robot.ID})
	if err != nil {
		return model.Task{}, fmt.Errorf("persist assignment: %w", err)
	}
	o.log.Infof("task %s assigned to robot %s", task.ID, robot.ID)
	return updated, nil
}

// failTask moves the task to FAILED and wraps the cause. The robot side has
// already been rolled back by the dispatcher when relevant.
func (o *Orchestrator) failTask(ctx context.Context, task model.Task, cause error) error {
	sctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()
	st := model.TaskFailed
	if updated, err := o.tasks.Update(sctx, task.ID, store.TaskUpdate{Status: &st}); err != nil {
		o.log.Errorf("marking task %s failed: %v", task.ID, err)
	} else {
		o.notifier.Broadcast(notify.TaskSnapshot(updated))
	}
	return &AssignmentError{TaskID: task.ID, Cause: cause}
}

// Reconcile sweeps the PENDING backlog oldest-first and attempts assignment
// for each task. Per-task failures are logged without aborting the sweep; a
// task that vanished concurrently is skipped. Overlapping sweeps are
// suppressed rather than queued. Returns the number of tasks processed.
func (o *Orchestrator) Reconcile(ctx context.Context) (int, error) {
	if !o.reconciling.TryLock() {
		o.log.Debugf("reconcile already running, skipping")
		return 0, nil
	}
	defer o.reconciling.Unlock()

	start := time.Now()
	sctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	pending, err := o.tasks.ListByStatus(sctx, model.TaskPending)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("list pending tasks: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	o.log.Infof("reconciling %d pending tasks", len(pending))

	assigned := 0
	for _, task := range pending {
		// Re-read: the task may have been assigned or canceled since the list.
		gctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
		current, err := o.tasks.Get(gctx, task.ID)
		cancel()
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			o.log.Errorf("reconcile: reading task %s: %v", task.ID, err)
			continue
		}
		if current.Status != model.TaskPending {
			continue
		}
		res, err := o.AttemptAssign(ctx, current)
		if err != nil {
			o.log.Errorf("reconcile: task %s: %v", task.ID, err)
			continue
		}
		if res != nil {
			assigned++
		}
	}
	dur := time.Since(start)
	reconcileSeconds.Observe(dur.Seconds())
	if rec, ok := o.metrics.(metrics.ReconcileRecorder); ok {
		ev := metrics.ReconcileEvent{
			Pending:  len(pending),
			Assigned: assigned,
			Duration: dur,
			Time:     start,
		}
		if err := rec.RecordReconcile(ev); err != nil {
			o.log.Errorf("reconcile metrics: %v", err)
		}
	}
	return len(pending), nil
}

// IngestTelemetry is the engine entry point for asynchronous robot reports.
// It updates the robot record, completes the owned task when the robot went
// back to IDLE, broadcasts the committed changes and, when capacity was
// freed, runs a reconciliation pass.
func (o *Orchestrator) IngestTelemetry(ctx context.Context, robotID string, status model.RobotStatus, pos model.Position, battery float64) (model.Robot, error) {
	robot, completed, err := o.dispatcher.IngestTelemetry(ctx, robotID, status, pos, battery)
	if err != nil {
		return model.Robot{}, err
	}
	o.notifier.Broadcast(notify.RobotSnapshot(robot))
	if completed != nil {
		o.notifier.Broadcast(notify.TaskSnapshot(*completed))
	}
	if rr, ok := o.metrics.(metrics.RobotStateRecorder); ok {
		if err := rr.RecordRobotState(metrics.RobotStateEvent{Robot: robot, Component: "orchestrator", Time: time.Now()}); err != nil {
			o.log.Errorf("robot state metrics: %v", err)
		}
	}
	if status == model.RobotIdle {
		if _, err := o.Reconcile(ctx); err != nil {
			o.log.Errorf("reconcile after telemetry: %v", err)
		}
	}
	return robot, nil
}

// Cancel moves a non-terminal task to CANCELED and frees its robot when one
// was attached.
func (o *Orchestrator) Cancel(ctx context.Context, taskID string) (model.Task, error) {
	sctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()
	task, err := o.tasks.Get(sctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
		}
		return model.Task{}, err
	}
	if !task.Status.CanTransitionTo(model.TaskCanceled) {
		return model.Task{}, fmt.Errorf("%w: task %s is already %s", ErrConflict, taskID, task.Status)
	}
	st := model.TaskCanceled
	updated, err := o.tasks.Update(sctx, taskID, store.TaskUpdate{Status: &st})
	if err != nil {
		return model.Task{}, fmt.Errorf("persist cancel: %w", err)
	}
	if task.RobotID != "" {
		o.dispatcher.release(ctx, task.RobotID, task.ID)
		if r, err := o.robots.Get(sctx, task.RobotID); err == nil {
			o.notifier.Broadcast(notify.RobotSnapshot(r))
		}
	}
	o.log.Infof("task %s canceled", taskID)
	o.notifier.Broadcast(notify.TaskSnapshot(updated))
	return updated, nil
}

// Task returns a single task by id.
func (o *Orchestrator) Task(ctx context.Context, id string) (model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()
	t, err := o.tasks.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return t, err
}

// TasksByStatus lists tasks in the given status, oldest first.
func (o *Orchestrator) TasksByStatus(ctx context.Context, s model.TaskStatus) ([]model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()
	return o.tasks.ListByStatus(ctx, s)
}

// Robots lists the whole fleet.
func (o *Orchestrator) Robots(ctx context.Context) ([]model.Robot, error) {
	ctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()
	return o.robots.List(ctx)
}

func (o *Orchestrator) recordAssignment(task model.Task, robotID string, ok bool) {
	if err := o.metrics.RecordAssignment(metrics.AssignmentResult{
		TaskID:   task.ID,
		TaskType: task.Type,
		RobotID:  robotID,
		Assigned: ok,
		Time:     time.Now(),
	}); err != nil {
		o.log.Errorf("assignment metrics: %v", err)
	}
}
