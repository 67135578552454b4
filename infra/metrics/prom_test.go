package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/jwhan-dev/robofleet/core/metrics"
	"github.com/jwhan-dev/robofleet/core/model"
)

func TestPromSink_RecordAssignment(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	res := coremetrics.AssignmentResult{
		TaskID:   "t1",
		TaskType: model.SnackDelivery,
		RobotID:  "r1",
		Assigned: true,
		Time:     time.Now(),
	}
	if err := sink.RecordAssignment(res); err != nil {
		t.Fatalf("record: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "assignment_events_total" {
			found = true
			if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 1 {
				t.Errorf("counter value %v", v)
			}
		}
	}
	if !found {
		t.Fatalf("assignment counter not registered")
	}
}

func TestPromSink_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
}

func TestPromSink_RobotStateAndReconcile(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	sink := sinkIf.(*PromSink)
	if err := sink.RecordRobotState(coremetrics.RobotStateEvent{Robot: model.Robot{ID: "r1", Battery: 73}}); err != nil {
		t.Fatalf("robot state: %v", err)
	}
	if err := sink.RecordReconcile(coremetrics.ReconcileEvent{Pending: 4}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := map[string]float64{}
	for _, mf := range mfs {
		values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}
	if values["robot_battery_percent"] != 73 {
		t.Errorf("battery gauge %v", values["robot_battery_percent"])
	}
	if values["pending_tasks_last_sweep"] != 4 {
		t.Errorf("backlog gauge %v", values["pending_tasks_last_sweep"])
	}
}
