package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citydispatch/ridesim/core/fare"
	"github.com/citydispatch/ridesim/core/fleet"
	"github.com/citydispatch/ridesim/core/geo"
	"github.com/citydispatch/ridesim/core/match"
	"github.com/citydispatch/ridesim/core/model"
	"github.com/citydispatch/ridesim/infra/logger"
	"github.com/citydispatch/ridesim/internal/eventbus"
)

func testTypes() []model.VehicleType {
	return []model.VehicleType{
		{Name: "Economy", BaseFare: 2.0, PerKmRate: 0.8, SpeedKmh: 40, Color: "#4caf50"},
		{Name: "Premium", BaseFare: 5.0, PerKmRate: 1.8, SpeedKmh: 60, Color: "#9c27b0"},
	}
}

func testFleet(t *testing.T, size int) *fleet.Fleet {
	t.Helper()
	f, err := fleet.New(fleet.Config{
		Size:          size,
		Bounds:        geo.Bounds{Width: 800, Height: 500, Margin: 20},
		MaxSpeed:      4,
		Jitter:        0.6,
		BouncePerturb: 0.5,
		Types:         testTypes(),
	}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return f
}

// fastConfig compresses trips so release timers fire within a test run.
func fastConfig() Config {
	return Config{
		TickInterval:    10 * time.Millisecond,
		MinTripDuration: 30 * time.Millisecond,
		PerMinute:       time.Millisecond,
	}
}

func testEngine(t *testing.T, size int) *Engine {
	t.Helper()
	e, err := New(fastConfig(), testFleet(t, size), match.NearestMatcher{},
		fare.Estimator{PxToKm: 0.05}, logger.NopLogger{}, nil, nil)
	require.NoError(t, err)
	return e
}

func request(vt string) model.RideRequest {
	return model.RideRequest{
		VehicleType: vt,
		Pickup:      geo.Point{X: 100, Y: 100},
		Dropoff:     geo.Point{X: 400, Y: 100},
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(fastConfig(), nil, match.NearestMatcher{}, fare.Estimator{}, logger.NopLogger{}, nil, nil)
	require.Error(t, err)
}

func TestRequestRideStoresPendingEstimate(t *testing.T) {
	e := testEngine(t, 4)
	est := e.RequestRide(request("Economy"))
	require.False(t, est.Failed())
	require.Equal(t, "Economy", est.VehicleType)
	require.GreaterOrEqual(t, est.ETAMinutes, 2)
	require.GreaterOrEqual(t, est.TripMinutes, 3)

	snap := e.Snapshot()
	require.NotNil(t, snap.Pending)
	require.Equal(t, est.VehicleID, snap.Pending.VehicleID)
	require.Equal(t, est.VehicleID, snap.MatchedID)

	// The matched vehicle is not reserved until confirmation.
	for _, v := range snap.Vehicles {
		if v.ID == est.VehicleID {
			require.True(t, v.Available, "estimated vehicle must stay available")
		}
	}
}

func TestRequestRideReplacesPriorEstimate(t *testing.T) {
	e := testEngine(t, 4)
	first := e.RequestRide(request("Economy"))
	second := e.RequestRide(request("Premium"))
	snap := e.Snapshot()
	require.NotNil(t, snap.Pending)
	require.Equal(t, second.VehicleID, snap.Pending.VehicleID)
	require.NotEqual(t, first.VehicleType, snap.Pending.VehicleType)
}

func TestRequestRideNoVehicleClearsMatched(t *testing.T) {
	e := testEngine(t, 2) // veh0001 Economy, veh0002 Premium
	_, err := e.Hail("veh0001")
	require.NoError(t, err)
	require.Equal(t, "veh0001", e.Snapshot().MatchedID)

	// Reserve the only Economy vehicle, then ask for another Economy ride.
	e.RequestRide(request("Economy"))
	_, err = e.ConfirmBooking()
	require.NoError(t, err)

	est := e.RequestRide(request("Economy"))
	require.True(t, est.Failed())
	require.Equal(t, model.NoVehicleAvailable, est.Reason)
	snap := e.Snapshot()
	require.Empty(t, snap.MatchedID)
	require.Nil(t, snap.Pending)
}

func TestRequestRideUnknownTypeFails(t *testing.T) {
	e := testEngine(t, 4)
	est := e.RequestRide(request("Hovercraft"))
	require.True(t, est.Failed())
}

func TestRequestRideMatchesNearestOfType(t *testing.T) {
	e := testEngine(t, 4)
	// Fixed geometry: Economy at 100px and 50px, Premium at 10px.
	pickup := geo.Point{X: 100, Y: 100}
	require.NoError(t, e.fleet.Place("veh0001", geo.Point{X: 200, Y: 100})) // Economy, 100px
	require.NoError(t, e.fleet.Place("veh0003", geo.Point{X: 150, Y: 100})) // Economy, 50px
	require.NoError(t, e.fleet.Place("veh0002", geo.Point{X: 110, Y: 100})) // Premium, 10px
	require.NoError(t, e.fleet.Place("veh0004", geo.Point{X: 500, Y: 400})) // Premium, far

	est := e.RequestRide(model.RideRequest{VehicleType: "Economy", Pickup: pickup, Dropoff: geo.Point{X: 400, Y: 100}})
	require.False(t, est.Failed())
	require.Equal(t, "veh0003", est.VehicleID, "nearer Premium must not win an Economy request")
}

func TestConfirmBookingReservesAndReleases(t *testing.T) {
	e := testEngine(t, 4)
	est := e.RequestRide(request("Economy"))
	require.False(t, est.Failed())

	bk, err := e.ConfirmBooking()
	require.NoError(t, err)
	require.Equal(t, est.VehicleID, bk.VehicleID)
	require.Equal(t, est.Price, bk.Price)
	require.True(t, bk.ReleaseAt.After(bk.ConfirmedAt))

	snap := e.Snapshot()
	require.Nil(t, snap.Pending, "confirm clears the pending estimate")
	require.NotNil(t, snap.LastBooked)
	require.Len(t, snap.Bookings, 1)
	v, ok := e.fleet.Get(bk.VehicleID)
	require.True(t, ok)
	require.False(t, v.Available)

	require.Eventually(t, func() bool {
		v, _ := e.fleet.Get(bk.VehicleID)
		return v.Available
	}, time.Second, 5*time.Millisecond, "vehicle not released")

	snap = e.Snapshot()
	require.Empty(t, snap.Bookings)
	require.Nil(t, snap.LastBooked)
	bounds := e.fleet.Bounds()
	v, _ = e.fleet.Get(bk.VehicleID)
	require.True(t, bounds.Contains(v.Pos))
}

func TestConfirmBookingIdempotentSafe(t *testing.T) {
	e := testEngine(t, 4)
	e.RequestRide(request("Economy"))
	_, err := e.ConfirmBooking()
	require.NoError(t, err)

	before := e.Snapshot()
	_, err = e.ConfirmBooking()
	require.ErrorIs(t, err, model.ErrNoPendingEstimate)
	after := e.Snapshot()
	require.Equal(t, before.Available(), after.Available(), "second confirm must not mutate the fleet")
}

func TestConfirmBookingWithoutEstimate(t *testing.T) {
	e := testEngine(t, 4)
	_, err := e.ConfirmBooking()
	require.ErrorIs(t, err, model.ErrNoPendingEstimate)
}

func TestCancelEstimate(t *testing.T) {
	e := testEngine(t, 4)
	e.RequestRide(request("Economy"))
	e.CancelEstimate()
	snap := e.Snapshot()
	require.Nil(t, snap.Pending)
	require.Equal(t, len(snap.Vehicles), snap.Available(), "cancel must not touch the fleet")

	// Cancelling again is harmless.
	e.CancelEstimate()
}

func TestConcurrentBookingsForDifferentVehicles(t *testing.T) {
	e := testEngine(t, 4)
	e.RequestRide(request("Economy"))
	bk1, err := e.ConfirmBooking()
	require.NoError(t, err)

	e.RequestRide(request("Premium"))
	bk2, err := e.ConfirmBooking()
	require.NoError(t, err)
	require.NotEqual(t, bk1.VehicleID, bk2.VehicleID)
	require.Len(t, e.Snapshot().Bookings, 2)
}

func TestResetSceneInvalidatesPendingRelease(t *testing.T) {
	e := testEngine(t, 4)
	e.RequestRide(request("Economy"))
	bk, err := e.ConfirmBooking()
	require.NoError(t, err)

	snap := e.ResetScene(6)
	require.Len(t, snap.Vehicles, 6)
	require.Nil(t, snap.Pending)
	require.Empty(t, snap.Bookings)

	// The old release timer may still fire; it must be a silent no-op
	// against the fresh fleet.
	e.release(bk, snap.Generation-1)
	after := e.Snapshot()
	require.Equal(t, snap.Generation, after.Generation)
	require.Equal(t, 6, after.Available(), "stale release must not touch the new fleet")
}

func TestTickPublishesSnapshot(t *testing.T) {
	bus := eventbus.New[Event](4)
	e, err := New(fastConfig(), testFleet(t, 3), match.NearestMatcher{},
		fare.Estimator{PxToKm: 0.05}, logger.NopLogger{}, nil, bus)
	require.NoError(t, err)
	sub := bus.Subscribe()

	snap := e.Tick()
	require.Len(t, snap.Vehicles, 3)

	ev := <-sub
	se, ok := ev.(SnapshotEvent)
	require.True(t, ok)
	require.Equal(t, snap.Generation, se.Snapshot.Generation)
}

func TestHailUnknownVehicle(t *testing.T) {
	e := testEngine(t, 2)
	_, err := e.Hail("veh9999")
	require.ErrorIs(t, err, model.ErrUnknownVehicle)
}

func TestRequestRideClampsCoordinates(t *testing.T) {
	e := testEngine(t, 4)
	est := e.RequestRide(model.RideRequest{
		VehicleType: "Economy",
		Pickup:      geo.Point{X: -500, Y: 9999},
		Dropoff:     geo.Point{X: 10000, Y: -3},
	})
	require.False(t, est.Failed(), "out-of-bounds coordinates are clamped, not rejected")
}
