// Package link abstracts the wire between the engine and the physical robots.
package link

import (
	"context"
	"errors"

	"github.com/jwhan-dev/robofleet/core/model"
)

// ErrDeliveryTimeout is returned when a robot did not confirm reception of a
// command sequence before the deadline. Delivery confirmation is about the
// wire, not about task execution.
var ErrDeliveryTimeout = errors.New("link: timeout waiting for delivery confirmation")

// RobotLink sends ordered action sequences to named robots. Telemetry travels
// the opposite direction out-of-band and reaches the engine through the
// orchestrator's ingest entry point.
type RobotLink interface {
	// SendActionSequence delivers the sequence to the robot. A nil return
	// acknowledges delivery, not execution.
	SendActionSequence(ctx context.Context, robotName string, seq model.ActionSequence) error
}
