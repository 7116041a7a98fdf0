package model

import (
	"time"

	"github.com/citydispatch/ridesim/core/geo"
)

// RideRequest is a rider's wish: a vehicle class and a trip. Requests are
// ephemeral and never persisted.
type RideRequest struct {
	VehicleType string    `json:"vehicle_type"`
	Pickup      geo.Point `json:"pickup"`
	Dropoff     geo.Point `json:"dropoff"`
}

// EstimateFailure names the reason an estimate could not be produced.
type EstimateFailure string

const (
	// NoVehicleAvailable means no available vehicle of the requested type
	// exists in the fleet. Recoverable: retry or pick another type.
	NoVehicleAvailable EstimateFailure = "no_vehicle_available"
)

// Estimate is a quoted ETA, trip duration and price for a matched vehicle.
// A failed match is reported as an Estimate with Reason set; all numeric
// fields are zero in that case.
type Estimate struct {
	VehicleID   string          `json:"vehicle_id,omitempty"`
	VehicleType string          `json:"vehicle_type,omitempty"`
	ETAMinutes  int             `json:"eta_minutes,omitempty"`
	TripMinutes int             `json:"trip_minutes,omitempty"`
	TripKm      float64         `json:"trip_km,omitempty"`
	Price       float64         `json:"price,omitempty"`
	Reason      EstimateFailure `json:"reason,omitempty"`
}

// Failed reports whether the estimate is the error variant.
func (e Estimate) Failed() bool { return e.Reason != "" }

// Booking is a confirmed estimate. It reserves the vehicle until ReleaseAt,
// when the scheduled release returns it to the pool.
type Booking struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicle_id"`
	VehicleType string    `json:"vehicle_type"`
	Price       float64   `json:"price"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	ReleaseAt   time.Time `json:"release_at"`
}

// FleetSnapshot is an immutable view of the engine state handed to
// renderers. It is rebuilt wholesale on every query so readers never
// observe a torn update.
type FleetSnapshot struct {
	Vehicles   []Vehicle `json:"vehicles"`
	Generation uint64    `json:"generation"`
	Pending    *Estimate `json:"pending,omitempty"`
	MatchedID  string    `json:"matched_id,omitempty"`
	LastBooked *Booking  `json:"last_booked,omitempty"`
	Bookings   []Booking `json:"bookings,omitempty"`
	TakenAt    time.Time `json:"taken_at"`
}

// Available counts the vehicles currently free for matching.
func (s FleetSnapshot) Available() int {
	n := 0
	for _, v := range s.Vehicles {
		if v.Available {
			n++
		}
	}
	return n
}
