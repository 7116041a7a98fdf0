package model

import "github.com/citydispatch/ridesim/core/geo"

// VehicleType describes a vehicle class: its pricing profile, cruise speed
// and the colour a renderer should use for it. Types are immutable and come
// from the configured registry.
type VehicleType struct {
	Name      string  `json:"name"`
	BaseFare  float64 `json:"base_fare"`   // currency units
	PerKmRate float64 `json:"per_km_rate"` // currency per km
	SpeedKmh  float64 `json:"speed_kmh"`   // must be > 0
	Color     string  `json:"color"`
}

// Vehicle is a simulated vehicle moving on the map.
type Vehicle struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // VehicleType name
	Pos       geo.Point `json:"pos"`
	Vel       geo.Point `json:"vel"`
	Available bool      `json:"available"`
}
