package config

import (
	"fmt"
	"time"

	"github.com/citydispatch/ridesim/core/model"
)

// SimConfig holds the tunable simulation parameters. Nothing here is
// derived from real geography; the map is an abstract canvas.
type SimConfig struct {
	// MapWidth and MapHeight are the canvas extents in pixels.
	MapWidth  float64 `json:"map_width"`
	MapHeight float64 `json:"map_height"`
	// Margin insets the playable area on every side.
	Margin float64 `json:"margin"`
	// FleetSize is the default vehicle count.
	FleetSize int `json:"fleet_size"`
	// TickIntervalMS is the motion ticker period.
	TickIntervalMS int `json:"tick_interval_ms"`
	// PxToKm converts canvas distance to kilometers.
	PxToKm float64 `json:"px_to_km"`
	// MaxSpeed bounds each velocity axis in px per tick.
	MaxSpeed float64 `json:"max_speed"`
	// Jitter is the symmetric per-tick velocity noise.
	Jitter float64 `json:"jitter"`
	// BouncePerturb is the extra noise applied to a bounced velocity.
	BouncePerturb float64 `json:"bounce_perturb"`
	// MinTripMS floors the simulated time a booking holds a vehicle.
	MinTripMS int `json:"min_trip_ms"`
	// PerMinuteMS is the simulated wall time per estimated minute.
	PerMinuteMS int `json:"per_minute_ms"`
	// Seed makes placement and motion reproducible; 0 uses the clock.
	Seed int64 `json:"seed"`
}

// SetDefaults applies the standard simulation parameters.
func (c *SimConfig) SetDefaults() {
	if c.MapWidth <= 0 {
		c.MapWidth = 800
	}
	if c.MapHeight <= 0 {
		c.MapHeight = 500
	}
	if c.Margin <= 0 {
		c.Margin = 20
	}
	if c.FleetSize <= 0 {
		c.FleetSize = 12
	}
	if c.TickIntervalMS <= 0 {
		c.TickIntervalMS = 1000
	}
	if c.PxToKm <= 0 {
		c.PxToKm = 0.05
	}
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = 4
	}
	if c.Jitter <= 0 {
		c.Jitter = 0.6
	}
	if c.BouncePerturb <= 0 {
		c.BouncePerturb = 0.5
	}
	if c.MinTripMS <= 0 {
		c.MinTripMS = 5000
	}
	if c.PerMinuteMS <= 0 {
		c.PerMinuteMS = 200
	}
}

// Validate checks mandatory constraints.
func (c SimConfig) Validate() error {
	if c.Margin*2 >= c.MapWidth || c.Margin*2 >= c.MapHeight {
		return fmt.Errorf("sim: margin %v leaves no playable area", c.Margin)
	}
	return nil
}

// TickInterval returns the ticker period as a duration.
func (c SimConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// MinTripDuration returns the booking floor as a duration.
func (c SimConfig) MinTripDuration() time.Duration {
	return time.Duration(c.MinTripMS) * time.Millisecond
}

// PerMinute returns the per-estimated-minute duration.
func (c SimConfig) PerMinute() time.Duration {
	return time.Duration(c.PerMinuteMS) * time.Millisecond
}

// TypeConfig describes one vehicle class in the registry.
type TypeConfig struct {
	Name      string  `json:"name"`
	BaseFare  float64 `json:"base_fare"`
	PerKmRate float64 `json:"per_km_rate"`
	SpeedKmh  float64 `json:"speed_kmh"`
	Color     string  `json:"color"`
}

// DefaultTypes returns the standard three-class registry.
func DefaultTypes() []TypeConfig {
	return []TypeConfig{
		{Name: "Economy", BaseFare: 2.0, PerKmRate: 0.8, SpeedKmh: 40, Color: "#4caf50"},
		{Name: "Comfort", BaseFare: 3.5, PerKmRate: 1.2, SpeedKmh: 50, Color: "#2196f3"},
		{Name: "Premium", BaseFare: 5.0, PerKmRate: 1.8, SpeedKmh: 60, Color: "#9c27b0"},
	}
}

// ModelTypes converts the registry to core model types.
func ModelTypes(types []TypeConfig) []model.VehicleType {
	out := make([]model.VehicleType, len(types))
	for i, t := range types {
		out[i] = model.VehicleType{
			Name:      t.Name,
			BaseFare:  t.BaseFare,
			PerKmRate: t.PerKmRate,
			SpeedKmh:  t.SpeedKmh,
			Color:     t.Color,
		}
	}
	return out
}

func validateTypes(types []TypeConfig) error {
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		if t.Name == "" {
			return fmt.Errorf("vehicle type with empty name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate vehicle type %q", t.Name)
		}
		seen[t.Name] = true
		if t.SpeedKmh <= 0 {
			return fmt.Errorf("vehicle type %q: speed must be positive", t.Name)
		}
		if t.BaseFare < 0 || t.PerKmRate < 0 {
			return fmt.Errorf("vehicle type %q: negative fare", t.Name)
		}
	}
	return nil
}
