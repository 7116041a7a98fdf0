package model

import "errors"

var (
	// ErrNoPendingEstimate is returned when ConfirmBooking is called with
	// nothing to confirm. It is a no-op, never fatal.
	ErrNoPendingEstimate = errors.New("no pending estimate")

	// ErrUnknownVehicle is returned when an operation references a vehicle
	// id not present in the current fleet.
	ErrUnknownVehicle = errors.New("unknown vehicle")
)
