package metrics

import "time"

// EventKind labels a ride lifecycle event.
type EventKind string

const (
	EventRequested EventKind = "requested"  // a ride was requested
	EventMatched   EventKind = "matched"    // a vehicle was matched and quoted
	EventNoVehicle EventKind = "no_vehicle" // matching failed
	EventConfirmed EventKind = "confirmed"  // an estimate was confirmed
	EventCancelled EventKind = "cancelled"  // a pending estimate was discarded
	EventReleased  EventKind = "released"   // a reserved vehicle rejoined the pool
)

// RideEvent is a single lifecycle event to be recorded.
type RideEvent struct {
	Kind        EventKind
	VehicleID   string
	VehicleType string
	Price       float64
	Time        time.Time
}

// FleetSample is a point-in-time fleet census taken on every motion tick.
type FleetSample struct {
	Size      int
	Available int
	Time      time.Time
}

// MetricsSink records ride events and fleet samples for observability
// purposes.
type MetricsSink interface {
	RecordRideEvent(ev RideEvent) error
	RecordFleetSample(s FleetSample) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRideEvent(RideEvent) error     { return nil }
func (NopSink) RecordFleetSample(FleetSample) error { return nil }
