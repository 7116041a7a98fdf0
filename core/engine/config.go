package engine

import "time"

// Config defines the simulation-time parameters of the engine.
type Config struct {
	// TickInterval is the period of the motion ticker.
	TickInterval time.Duration
	// MinTripDuration floors the simulated time a booking holds a vehicle.
	MinTripDuration time.Duration
	// PerMinute is the simulated wall time charged per estimated minute.
	// Trips run compressed: the default maps one minute to 200ms.
	PerMinute time.Duration
}

// SetDefaults applies the standard simulation timing.
func (c *Config) SetDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.MinTripDuration <= 0 {
		c.MinTripDuration = 5 * time.Second
	}
	if c.PerMinute <= 0 {
		c.PerMinute = 200 * time.Millisecond
	}
}
