package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/infra/logger"
	"github.com/jwhan-dev/robofleet/infra/mqtt"
)

// Config holds parameters for the simulated fleet.
type Config struct {
	Broker  string
	Count   int
	SpeedMS float64       // movement speed in units per second
	Step    time.Duration // telemetry publish period
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 3
	}
	if c.SpeedMS <= 0 {
		c.SpeedMS = 1.5
	}
	if c.Step <= 0 {
		c.Step = 500 * time.Millisecond
	}
}

// SimulatedRobot connects to MQTT, acknowledges commands and walks through
// the received action sequences while reporting telemetry.
type SimulatedRobot struct {
	ID      string
	Name    string
	Speed   float64
	Step    time.Duration
	Battery float64
	Pos     model.Position

	client paho.Client
	cmdCh  chan mqtt.CommandEnvelope
	log    logger.Logger
}

// NewSimulatedRobot creates a robot starting idle at the given position.
func NewSimulatedRobot(id, name string, pos model.Position, cfg Config) *SimulatedRobot {
	return &SimulatedRobot{
		ID:      id,
		Name:    name,
		Speed:   cfg.SpeedMS,
		Step:    cfg.Step,
		Battery: 100,
		Pos:     pos,
		cmdCh:   make(chan mqtt.CommandEnvelope, 8),
		log:     logger.New("sim-" + name),
	}
}

// Run connects to the broker and executes commands until ctx is done.
func (r *SimulatedRobot) Run(ctx context.Context, broker string) error {
	cli, err := newSimClient(broker, "sim-"+r.Name)
	if err != nil {
		return err
	}
	r.client = cli
	if token := cli.Subscribe(mqtt.CommandTopic(r.Name), 0, r.onCommand); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	r.publishTelemetry(model.RobotIdle)

	for {
		select {
		case <-ctx.Done():
			cli.Disconnect(250)
			return nil
		case cmd := <-r.cmdCh:
			r.ack(cmd, true)
			r.execute(ctx, cmd.Actions)
		}
	}
}

func (r *SimulatedRobot) onCommand(_ paho.Client, msg paho.Message) {
	var cmd mqtt.CommandEnvelope
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		r.log.Errorf("decode command: %v", err)
		return
	}
	select {
	case r.cmdCh <- cmd:
	default:
		r.log.Warnf("command queue full, rejecting %s", cmd.CommandID)
		r.ack(cmd, false)
	}
}

func (r *SimulatedRobot) ack(cmd mqtt.CommandEnvelope, ok bool) {
	payload, err := json.Marshal(mqtt.DeliveryAck{CommandID: cmd.CommandID, RobotName: r.Name, Success: ok})
	if err != nil {
		return
	}
	r.client.Publish(mqtt.AckTopic, 0, false, payload)
}

// execute walks through the sequence one action at a time, publishing
// telemetry after every step.
func (r *SimulatedRobot) execute(ctx context.Context, actions []model.Action) {
	for _, a := range actions {
		switch a.Type {
		case model.ActionGoto, model.ActionLeadGuest:
			status := model.RobotMoving
			if a.Type == model.ActionLeadGuest {
				status = model.RobotPerforming
			}
			if !r.walkTo(ctx, actionTarget(a), status) {
				return
			}
		default:
			r.publishTelemetry(model.RobotPerforming)
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.Step):
			}
			r.drain(0.1)
		}
	}
	r.publishTelemetry(model.RobotIdle)
}

// walkTo moves toward target at the configured speed. It returns false when
// the context expired mid-walk.
func (r *SimulatedRobot) walkTo(ctx context.Context, target model.Position, status model.RobotStatus) bool {
	for r.Pos.DistanceTo(target) > 1e-9 {
		stride := r.Speed * r.Step.Seconds()
		r.Pos = stepToward(r.Pos, target, stride)
		r.drain(0.05 * stride)
		r.publishTelemetry(status)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(r.Step):
		}
	}
	return true
}

func (r *SimulatedRobot) drain(amount float64) {
	r.Battery -= amount
	if r.Battery < 0 {
		r.Battery = 0
	}
}

func (r *SimulatedRobot) publishTelemetry(status model.RobotStatus) {
	t := mqtt.Telemetry{
		RobotID:    r.ID,
		Status:     string(status),
		X:          r.Pos.X,
		Y:          r.Pos.Y,
		Battery:    r.Battery,
		ReportedAt: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return
	}
	r.client.Publish(mqtt.TelemetryTopicFor(r.ID), 0, false, payload)
}

// actionTarget reads the x/y coordinates out of an action's params.
func actionTarget(a model.Action) model.Position {
	var p model.Position
	if v, ok := a.Params["x"].(float64); ok {
		p.X = v
	}
	if v, ok := a.Params["y"].(float64); ok {
		p.Y = v
	}
	return p
}

// stepToward advances pos by at most stride toward target.
func stepToward(pos, target model.Position, stride float64) model.Position {
	d := pos.DistanceTo(target)
	if d <= stride || d == 0 {
		return target
	}
	f := stride / d
	return model.Position{
		X: pos.X + (target.X-pos.X)*f,
		Y: pos.Y + (target.Y-pos.Y)*f,
	}
}

func newSimClient(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}

// GenerateFleet creates Count robots named bot0001..botNNNN spread along a
// diagonal so they start at distinct positions.
func GenerateFleet(cfg Config) []*SimulatedRobot {
	cfg.SetDefaults()
	robots := make([]*SimulatedRobot, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		name := fmt.Sprintf("bot%04d", i+1)
		pos := model.Position{X: float64(i * 2), Y: float64(i * 2)}
		robots[i] = NewSimulatedRobot(name, name, pos, cfg)
	}
	return robots
}
