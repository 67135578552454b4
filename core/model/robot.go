package model

import (
	"fmt"
	"math"
)

// RobotStatus describes the operational state reported by or assigned to a robot.
type RobotStatus string

const (
	RobotIdle       RobotStatus = "IDLE"
	RobotMoving     RobotStatus = "MOVING"
	RobotPerforming RobotStatus = "PERFORMING_TASK"
	RobotReturning  RobotStatus = "RETURNING"
	RobotCharging   RobotStatus = "CHARGING"
	RobotError      RobotStatus = "ERROR"
)

// Busy reports whether the status implies the robot owns a task.
func (s RobotStatus) Busy() bool {
	return s == RobotMoving || s == RobotPerforming || s == RobotReturning
}

// Valid reports whether s is one of the known robot statuses.
func (s RobotStatus) Valid() bool {
	switch s {
	case RobotIdle, RobotMoving, RobotPerforming, RobotReturning, RobotCharging, RobotError:
		return true
	}
	return false
}

// Position is a 2D pose on the operating floor.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Robot represents a fleet member and its last reported state.
type Robot struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Status        RobotStatus `json:"status"`
	Battery       float64     `json:"battery_level"` // percent, 0-100
	Position      Position    `json:"position"`
	CurrentTaskID string      `json:"current_task_id,omitempty"`
}

// Validate checks that the robot record is internally consistent.
// A task reference is only allowed while the robot is in a busy state.
func (r Robot) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("robot id is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown robot status %q", r.Status)
	}
	if r.Battery < 0 || r.Battery > 100 {
		return fmt.Errorf("battery level %v out of range", r.Battery)
	}
	if (r.CurrentTaskID != "") != r.Status.Busy() {
		return fmt.Errorf("task reference inconsistent with status %s", r.Status)
	}
	return nil
}

// Dispatchable reports whether the robot qualifies as a claim candidate.
func (r Robot) Dispatchable(minBattery float64) bool {
	return r.Status == RobotIdle && r.Battery > minBattery
}
