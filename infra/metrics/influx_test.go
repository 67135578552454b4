package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/jwhan-dev/robofleet/core/metrics"
	"github.com/jwhan-dev/robofleet/core/model"
)

func TestInfluxSink_RecordAssignment(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	res := coremetrics.AssignmentResult{
		TaskID:   "t1",
		TaskType: model.SnackDelivery,
		RobotID:  "r1",
		Assigned: true,
		Time:     now,
	}
	if err := sink.RecordAssignment(res); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("assignment_event").
		AddTag("task_type", string(model.SnackDelivery)).
		AddTag("assigned", strconv.FormatBool(true)).
		AddTag("robot_id", "r1").
		AddField("task_id", "t1").
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordRobotState(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = strings.TrimSpace(string(data))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.RobotStateEvent{
		Robot: model.Robot{
			ID:       "r1",
			Status:   model.RobotIdle,
			Battery:  82,
			Position: model.Position{X: 1.5, Y: -2},
		},
		Component: "telemetry",
		Time:      now,
	}
	if err := sink.RecordRobotState(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("robot_state").
		AddTag("robot_id", "r1").
		AddTag("status", string(model.RobotIdle)).
		AddField("battery", 82.0).
		AddField("x", 1.5).
		AddField("y", -2.0).
		SetTime(now)
	p.AddTag("component", "telemetry")
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if body != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cfg := coremetrics.Config{
		InfluxURL:    srv.URL,
		InfluxToken:  "tok",
		InfluxOrg:    "org",
		InfluxBucket: "bucket",
	}
	sink := NewInfluxSinkWithFallback(cfg)
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
