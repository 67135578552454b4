package test

import (
	"context"
	"testing"

	"github.com/jwhan-dev/robofleet/core/dispatch"
	coremetrics "github.com/jwhan-dev/robofleet/core/metrics"
	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/core/notify"
	"github.com/jwhan-dev/robofleet/core/store"
	"github.com/jwhan-dev/robofleet/infra/logger"
	"github.com/jwhan-dev/robofleet/infra/mqtt"
)

type engine struct {
	orch   *dispatch.Orchestrator
	robots *store.MemoryRobotStore
	tasks  *store.MemoryTaskStore
	link   *mqtt.MockLink
	hub    *notify.Hub
}

func newEngine(t *testing.T, fleet ...model.Robot) *engine {
	t.Helper()
	robots := store.NewMemoryRobotStore()
	tasks := store.NewMemoryTaskStore()
	link := mqtt.NewMockLink()
	hub := notify.NewHub(logger.NopLogger{})

	disp, err := dispatch.NewDispatcher(robots, tasks, link, dispatch.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	orch, err := dispatch.NewOrchestrator(disp, tasks, robots, hub, coremetrics.NopSink{}, dispatch.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	for _, r := range fleet {
		if err := robots.Register(context.Background(), r); err != nil {
			t.Fatalf("register %s: %v", r.ID, err)
		}
	}
	return &engine{orch: orch, robots: robots, tasks: tasks, link: link, hub: hub}
}

func idleRobot(id string, x, y, battery float64) model.Robot {
	return model.Robot{ID: id, Name: id, Status: model.RobotIdle, Battery: battery, Position: model.Position{X: x, Y: y}}
}

// A task runs through its whole lifecycle: creation assigns the nearest
// robot, the robot works it off over telemetry, and the backlog drains as
// capacity frees up.
func TestTaskLifecycleIntegration(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, idleRobot("r1", 0, 0, 90))

	t1, err := e.orch.CreateTask(ctx, model.SnackDelivery, "guest-1", model.Details{
		"item_name":   "pretzels",
		"destination": map[string]any{"x": 3.0, "y": 4.0},
	})
	if err != nil {
		t.Fatalf("create t1: %v", err)
	}
	if t1.Status != model.TaskAssigned || t1.RobotID != "r1" {
		t.Fatalf("t1 not assigned to r1: %+v", t1)
	}
	if _, ok := e.link.Sent("r1"); !ok {
		t.Fatalf("no action sequence delivered to r1")
	}

	// second task queues up behind the busy robot
	t2, err := e.orch.CreateTask(ctx, model.GuideGuest, "guest-2", model.Details{
		"destination": map[string]any{"x": 1.0, "y": 1.0},
	})
	if err != nil {
		t.Fatalf("create t2: %v", err)
	}
	if t2.Status != model.TaskPending {
		t.Fatalf("t2 should stay pending, got %s", t2.Status)
	}

	// the robot reports progress, then finishes
	if _, err := e.orch.IngestTelemetry(ctx, "r1", model.RobotMoving, model.Position{X: 1, Y: 2}, 85); err != nil {
		t.Fatalf("telemetry moving: %v", err)
	}
	if _, err := e.orch.IngestTelemetry(ctx, "r1", model.RobotIdle, model.Position{X: 3, Y: 4}, 80); err != nil {
		t.Fatalf("telemetry idle: %v", err)
	}

	done, err := e.orch.Task(ctx, t1.ID)
	if err != nil {
		t.Fatalf("get t1: %v", err)
	}
	if done.Status != model.TaskCompleted || done.CompletedAt == nil {
		t.Fatalf("t1 not completed: %+v", done)
	}

	// the idle report triggered a sweep that picked up the backlog
	next, err := e.orch.Task(ctx, t2.ID)
	if err != nil {
		t.Fatalf("get t2: %v", err)
	}
	if next.Status != model.TaskAssigned || next.RobotID != "r1" {
		t.Fatalf("t2 not picked up after completion: %+v", next)
	}
}

// Snapshots reaching a slow observer never stall the engine, and the
// remaining observers keep receiving broadcasts.
func TestNotifierIsolationIntegration(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, idleRobot("r1", 0, 0, 90))

	good := &recordingObserver{}
	e.hub.Attach(good)
	e.hub.Attach(&failingObserver{})

	if _, err := e.orch.CreateTask(ctx, model.GuideGuest, "guest-1", model.Details{
		"destination": map[string]any{"x": 2.0, "y": 2.0},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if e.hub.Len() != 1 {
		t.Fatalf("failing observer not dropped, hub size %d", e.hub.Len())
	}
	if len(good.snapshots()) == 0 {
		t.Fatalf("surviving observer received nothing")
	}
}

// Telemetry from an unregistered robot is rejected without side effects.
func TestUnknownRobotTelemetryIntegration(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, idleRobot("r1", 0, 0, 90))

	if _, err := e.orch.IngestTelemetry(ctx, "ghost", model.RobotIdle, model.Position{}, 50); err == nil {
		t.Fatalf("expected error for unknown robot")
	}
	pending, err := e.tasks.ListByStatus(ctx, model.TaskPending)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("unexpected tasks after rejected telemetry")
	}
}
