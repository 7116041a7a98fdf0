package engine

import "github.com/citydispatch/ridesim/core/model"

// Event is the union of notifications published on the engine bus.
// Renderers and exporters subscribe without coupling to the engine.
type Event any

// SnapshotEvent carries the fleet state after a motion tick or reset.
type SnapshotEvent struct {
	Snapshot model.FleetSnapshot
}

// EstimateEvent is published for every ride request, including the
// error variant.
type EstimateEvent struct {
	Estimate model.Estimate
}

// BookingEvent is published when an estimate is confirmed.
type BookingEvent struct {
	Booking model.Booking
}

// ReleaseEvent is published when a reserved vehicle rejoins the pool.
type ReleaseEvent struct {
	VehicleID string
	BookingID string
}
