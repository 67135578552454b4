package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jwhan-dev/robofleet/core/model"
)

type RobotDef struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	Status  string  `yaml:"status"`
	Battery float64 `yaml:"battery"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
}

func (r RobotDef) ToModel() model.Robot {
	status := model.RobotIdle
	if r.Status != "" {
		status = model.RobotStatus(r.Status)
	}
	name := r.Name
	if name == "" {
		name = r.ID
	}
	return model.Robot{
		ID:       r.ID,
		Name:     name,
		Status:   status,
		Battery:  r.Battery,
		Position: model.Position{X: r.X, Y: r.Y},
	}
}

type TaskDef struct {
	Type      string  `yaml:"type"`
	Requester string  `yaml:"requester"`
	Item      string  `yaml:"item,omitempty"`
	DestX     float64 `yaml:"dest_x"`
	DestY     float64 `yaml:"dest_y"`
}

func (t TaskDef) Details() model.Details {
	d := model.Details{
		"destination": map[string]any{"x": t.DestX, "y": t.DestY},
	}
	if t.Item != "" {
		d["item_name"] = t.Item
	}
	return d
}

type Expected struct {
	Assigned int `yaml:"assigned"`
	Pending  int `yaml:"pending"`
	Failed   int `yaml:"failed"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Robots      []RobotDef `yaml:"robots"`
	Tasks       []TaskDef  `yaml:"tasks"`
	FailRobots  []string   `yaml:"fail_robots,omitempty"`
	Expected    Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
