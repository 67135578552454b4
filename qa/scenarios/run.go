package scenarios

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

// RunScenario replays a declarative orchestration scenario against an
// in-memory engine and checks the resulting task distribution.
func RunScenario(t *testing.T, sc *Scenario) {
	ctx := context.Background()
	robots := store.NewMemoryRobotStore()
	tasks := store.NewMemoryTaskStore()
	link := mqtt.NewMockLink()
	for _, name := range sc.FailRobots {
		link.FailNames[name] = true
	}

	disp, err := dispatch.NewDispatcher(robots, tasks, link, dispatch.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	orch, err := dispatch.NewOrchestrator(disp, tasks, robots, notify.NopNotifier{}, coremetrics.NopSink{}, dispatch.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	for _, rd := range sc.Robots {
		if err := robots.Register(ctx, rd.ToModel()); err != nil {
			t.Fatalf("register %s: %v", rd.ID, err)
		}
	}
	for _, td := range sc.Tasks {
		// Assignment failures surface as errors but still leave a FAILED
		// record behind, which the expectation block accounts for.
		_, _ = orch.CreateTask(ctx, model.TaskType(td.Type), td.Requester, td.Details())
	}
	if _, err := orch.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	counts := map[model.TaskStatus]int{}
	for _, s := range []model.TaskStatus{model.TaskPending, model.TaskAssigned, model.TaskFailed} {
		list, err := tasks.ListByStatus(ctx, s)
		if err != nil {
			t.Fatalf("list %s: %v", s, err)
		}
		counts[s] = len(list)
	}
	if counts[model.TaskAssigned] != sc.Expected.Assigned {
		t.Errorf("assigned %d, want %d", counts[model.TaskAssigned], sc.Expected.Assigned)
	}
	if counts[model.TaskPending] != sc.Expected.Pending {
		t.Errorf("pending %d, want %d", counts[model.TaskPending], sc.Expected.Pending)
	}
	if counts[model.TaskFailed] != sc.Expected.Failed {
		t.Errorf("failed %d, want %d", counts[model.TaskFailed], sc.Expected.Failed)
	}
}
