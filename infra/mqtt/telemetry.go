package mqtt

import (
	"context"
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/infra/logger"
)

// TelemetryHandler is the engine entry point telemetry messages are fed into.
// The orchestrator implements it.
type TelemetryHandler interface {
	IngestTelemetry(ctx context.Context, robotID string, status model.RobotStatus, pos model.Position, battery float64) (model.Robot, error)
}

// TelemetryReceiver subscribes to the fleet telemetry topic and forwards each
// report to the handler.
type TelemetryReceiver struct {
	raw pahoClient
	log logger.Logger
}

// NewTelemetryReceiver connects a new MQTT session dedicated to telemetry.
func NewTelemetryReceiver(cfg Config, handler TelemetryHandler) (*TelemetryReceiver, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("telemetry_receiver")
	r := &TelemetryReceiver{log: log}
	opts.OnConnect = func(c paho.Client) {
		if token := c.Subscribe(TelemetryTopic, cfg.QoS["telemetry"], r.handlerFunc(handler)); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	r.raw = c
	return r, nil
}

func (r *TelemetryReceiver) handlerFunc(handler TelemetryHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		var tm Telemetry
		if err := json.Unmarshal(msg.Payload(), &tm); err != nil {
			r.log.Errorf("invalid telemetry received: %v", err)
			return
		}
		status := model.RobotStatus(tm.Status)
		if !status.Valid() {
			r.log.Warnf("telemetry with unknown status %q from %s", tm.Status, tm.RobotID)
			return
		}
		if _, err := handler.IngestTelemetry(context.Background(), tm.RobotID, status, model.Position{X: tm.X, Y: tm.Y}, tm.Battery); err != nil {
			r.log.Errorf("telemetry ingest for %s: %v", tm.RobotID, err)
		}
	}
}

// Close disconnects the telemetry session.
func (r *TelemetryReceiver) Close() {
	if r.raw != nil && r.raw.IsConnected() {
		r.raw.Disconnect(250)
	}
}
