package config

// APIConfig defines settings for the HTTP API server.
type APIConfig struct {
	// Addr is the listen address of the API server.
	Addr string `json:"addr"`
	// Enabled toggles the API server on or off.
	Enabled bool `json:"enabled"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
