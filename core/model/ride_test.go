package model

import "testing"

func TestEstimateFailed(t *testing.T) {
	ok := Estimate{VehicleID: "veh0001", ETAMinutes: 2, TripMinutes: 5, Price: 4.2}
	if ok.Failed() {
		t.Fatalf("successful estimate reported as failed")
	}
	bad := Estimate{Reason: NoVehicleAvailable}
	if !bad.Failed() {
		t.Fatalf("error variant not reported as failed")
	}
}

func TestSnapshotAvailable(t *testing.T) {
	s := FleetSnapshot{Vehicles: []Vehicle{
		{ID: "veh0001", Available: true},
		{ID: "veh0002"},
		{ID: "veh0003", Available: true},
	}}
	if got := s.Available(); got != 2 {
		t.Fatalf("expected 2 available, got %d", got)
	}
}
