package dispatch

// Config holds engine tunables loaded from configuration.
type Config struct {
	// BatteryThreshold excludes robots at or below this charge percentage
	// from selection.
	BatteryThreshold float64 `json:"battery_threshold"`
	// ClaimRetries bounds how often an assignment attempt re-runs selection
	// after losing a claim race.
	ClaimRetries int `json:"claim_retries"`
	// StoreTimeoutSeconds bounds individual repository calls.
	StoreTimeoutSeconds int `json:"store_timeout_seconds"`
	// LinkTimeoutSeconds bounds the hand-off of an action sequence.
	LinkTimeoutSeconds int `json:"link_timeout_seconds"`
	// ReconcileIntervalSeconds is the period of the reconciliation sweep.
	ReconcileIntervalSeconds int `json:"reconcile_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BatteryThreshold == 0 {
		c.BatteryThreshold = 20
	}
	if c.ClaimRetries == 0 {
		c.ClaimRetries = 3
	}
	if c.StoreTimeoutSeconds == 0 {
		c.StoreTimeoutSeconds = 5
	}
	if c.LinkTimeoutSeconds == 0 {
		c.LinkTimeoutSeconds = 5
	}
	if c.ReconcileIntervalSeconds == 0 {
		c.ReconcileIntervalSeconds = 10
	}
}
