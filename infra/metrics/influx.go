package metrics

import (
	"context"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/jwhan-dev/robofleet/core/metrics"
	"github.com/jwhan-dev/robofleet/infra/logger"
)

// InfluxSink writes fleet events to an InfluxDB instance using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClient(url, token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAssignment writes the settled attempt as a point.
func (s *InfluxSink) RecordAssignment(res coremetrics.AssignmentResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_event").
		AddTag("task_type", string(res.TaskType)).
		AddTag("assigned", strconv.FormatBool(res.Assigned)).
		AddTag("robot_id", res.RobotID).
		AddField("task_id", res.TaskID).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRobotState writes a snapshot of a robot.
func (s *InfluxSink) RecordRobotState(ev coremetrics.RobotStateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := ev.Robot
	p := write.NewPointWithMeasurement("robot_state").
		AddTag("robot_id", r.ID).
		AddTag("status", string(r.Status)).
		AddField("battery", r.Battery).
		AddField("x", r.Position.X).
		AddField("y", r.Position.Y).
		SetTime(ev.Time)
	if ev.Component != "" {
		p.AddTag("component", ev.Component)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordReconcile writes one point per sweep.
func (s *InfluxSink) RecordReconcile(ev coremetrics.ReconcileEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reconcile_sweep").
		AddField("pending", ev.Pending).
		AddField("assigned", ev.Assigned).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
