package config

// RobotSeed describes one robot registered at startup.
type RobotSeed struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Battery float64 `json:"battery"`
}

// FleetConfig lists the robots the service manages.
type FleetConfig struct {
	Robots []RobotSeed `json:"robots"`
}
