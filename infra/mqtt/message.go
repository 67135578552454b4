package mqtt

import "github.com/jwhan-dev/robofleet/core/model"

// CommandEnvelope is the wire form of an action sequence sent to a robot.
type CommandEnvelope struct {
	CommandID string               `json:"command_id"`
	RobotName string               `json:"robot_name"`
	Type      string               `json:"type"`
	Actions   model.ActionSequence `json:"payload"`
}

// DeliveryAck confirms a robot received a command envelope. It acknowledges
// delivery, not execution.
type DeliveryAck struct {
	CommandID string `json:"command_id"`
	RobotName string `json:"robot_name"`
	Success   bool   `json:"success"`
}

// Telemetry is the periodic self-report robots publish. ReportedAt is carried
// for observability; application order remains arrival order.
type Telemetry struct {
	RobotID    string  `json:"robot_id"`
	Status     string  `json:"status"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Battery    float64 `json:"battery_level"`
	ReportedAt int64   `json:"reported_at,omitempty"`
}

// CommandTopic is where a robot listens for action sequences.
func CommandTopic(robotName string) string {
	return "robofleet/robot/" + robotName + "/commands"
}

// AckTopic is where all robots publish delivery acknowledgments.
const AckTopic = "robofleet/ack"

// TelemetryTopic matches telemetry from every robot.
const TelemetryTopic = "robofleet/robot/+/telemetry"

// TelemetryTopicFor is where one robot publishes its telemetry.
func TelemetryTopicFor(robotName string) string {
	return "robofleet/robot/" + robotName + "/telemetry"
}
