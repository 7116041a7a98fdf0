package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/citydispatch/ridesim/core/fare"
	"github.com/citydispatch/ridesim/core/fleet"
	"github.com/citydispatch/ridesim/core/logger"
	"github.com/citydispatch/ridesim/core/match"
	"github.com/citydispatch/ridesim/core/metrics"
	"github.com/citydispatch/ridesim/core/model"
	"github.com/citydispatch/ridesim/internal/eventbus"
)

// Engine owns the dispatch simulation state: the fleet, the single pending
// estimate, the matched display pointer and the in-flight bookings. All
// operations serialize on one mutex; scheduled releases are one-shot timers
// tagged with the fleet generation so a reset silently invalidates them.
type Engine struct {
	cfg       Config
	fleet     *fleet.Fleet
	matcher   match.Matcher
	estimator fare.Estimator
	log       logger.Logger
	sink      metrics.MetricsSink
	bus       *eventbus.Bus[Event]

	mu         sync.Mutex
	pending    *model.Estimate
	matchedID  string
	lastBooked *model.Booking
	bookings   map[string]model.Booking // keyed by vehicle id
	timers     map[string]*time.Timer   // keyed by booking id
}

// New creates an engine. The bus and sink may be nil; a nil sink records
// nothing and a nil bus publishes nothing.
func New(cfg Config, fl *fleet.Fleet, m match.Matcher, est fare.Estimator, log logger.Logger, sink metrics.MetricsSink, bus *eventbus.Bus[Event]) (*Engine, error) {
	if fl == nil || m == nil || log == nil {
		return nil, fmt.Errorf("engine: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{
		cfg:       cfg,
		fleet:     fl,
		matcher:   m,
		estimator: est,
		log:       log,
		sink:      sink,
		bus:       bus,
		bookings:  make(map[string]model.Booking),
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Run drives the motion ticker until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.Tick()
		case <-ctx.Done():
			return
		}
	}
}

// Tick advances the motion model one step and returns the new snapshot.
func (e *Engine) Tick() model.FleetSnapshot {
	e.fleet.Tick()
	snap := e.Snapshot()
	e.record(func() error {
		return e.sink.RecordFleetSample(metrics.FleetSample{
			Size:      len(snap.Vehicles),
			Available: snap.Available(),
			Time:      snap.TakenAt,
		})
	})
	e.publish(SnapshotEvent{Snapshot: snap})
	return snap
}

// RequestRide matches the nearest available vehicle of the requested type
// and quotes the trip. The matched vehicle is NOT reserved yet; it stays
// available until ConfirmBooking. A failed match returns the error-variant
// estimate, clears the matched pointer and reserves nothing. Out-of-bounds
// coordinates are clamped, not rejected.
func (e *Engine) RequestRide(req model.RideRequest) model.Estimate {
	b := e.fleet.Bounds()
	req.Pickup = b.Clamp(req.Pickup)
	req.Dropoff = b.Clamp(req.Dropoff)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.record(func() error {
		return e.sink.RecordRideEvent(metrics.RideEvent{
			Kind: metrics.EventRequested, VehicleType: req.VehicleType, Time: time.Now(),
		})
	})

	vt, typeOK := e.fleet.TypeByName(req.VehicleType)
	var candidate model.Vehicle
	matched := false
	if typeOK {
		candidate, matched = e.matcher.Nearest(e.fleet.Snapshot(), req.VehicleType, req.Pickup)
	} else {
		e.log.Warnf("ride request for unknown vehicle type %q", req.VehicleType)
	}

	if !matched {
		e.pending = nil
		e.matchedID = ""
		est := model.Estimate{Reason: model.NoVehicleAvailable}
		e.record(func() error {
			return e.sink.RecordRideEvent(metrics.RideEvent{
				Kind: metrics.EventNoVehicle, VehicleType: req.VehicleType, Time: time.Now(),
			})
		})
		e.publish(EstimateEvent{Estimate: est})
		return est
	}

	est := e.estimator.Estimate(candidate, vt, req.Pickup, req.Dropoff)
	e.pending = &est
	e.matchedID = candidate.ID
	e.log.Debugw("ride estimated", map[string]any{
		"vehicle_id": candidate.ID,
		"type":       vt.Name,
		"eta_min":    est.ETAMinutes,
		"trip_min":   est.TripMinutes,
		"price":      est.Price,
	})
	e.record(func() error {
		return e.sink.RecordRideEvent(metrics.RideEvent{
			Kind: metrics.EventMatched, VehicleID: candidate.ID,
			VehicleType: vt.Name, Price: est.Price, Time: time.Now(),
		})
	})
	e.publish(EstimateEvent{Estimate: est})
	return est
}

// ConfirmBooking reserves the vehicle of the pending estimate and schedules
// its release after the compressed trip duration. Without a pending
// estimate it is a safe no-op returning ErrNoPendingEstimate.
func (e *Engine) ConfirmBooking() (model.Booking, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil || e.pending.Failed() {
		return model.Booking{}, model.ErrNoPendingEstimate
	}
	est := *e.pending
	if err := e.fleet.SetAvailable(est.VehicleID, false); err != nil {
		e.pending = nil
		return model.Booking{}, fmt.Errorf("confirm booking: %w", err)
	}

	dur := time.Duration(est.ETAMinutes+est.TripMinutes) * e.cfg.PerMinute
	if dur < e.cfg.MinTripDuration {
		dur = e.cfg.MinTripDuration
	}
	now := time.Now()
	bk := model.Booking{
		ID:          uuid.NewString(),
		VehicleID:   est.VehicleID,
		VehicleType: est.VehicleType,
		Price:       est.Price,
		ConfirmedAt: now,
		ReleaseAt:   now.Add(dur),
	}
	e.bookings[bk.VehicleID] = bk
	e.pending = nil
	e.lastBooked = &bk

	gen := e.fleet.Generation()
	e.timers[bk.ID] = time.AfterFunc(dur, func() { e.release(bk, gen) })

	e.log.Infof("booking %s confirmed: %s for %.2f, release in %s", bk.ID, bk.VehicleID, bk.Price, dur)
	e.record(func() error {
		return e.sink.RecordRideEvent(metrics.RideEvent{
			Kind: metrics.EventConfirmed, VehicleID: bk.VehicleID,
			VehicleType: bk.VehicleType, Price: bk.Price, Time: now,
		})
	})
	e.publish(BookingEvent{Booking: bk})
	return bk, nil
}

// CancelEstimate discards the pending estimate. The fleet is untouched.
func (e *Engine) CancelEstimate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return
	}
	e.pending = nil
	e.matchedID = ""
	e.record(func() error {
		return e.sink.RecordRideEvent(metrics.RideEvent{Kind: metrics.EventCancelled, Time: time.Now()})
	})
}

// Hail sets the display-only matched pointer without reserving anything.
func (e *Engine) Hail(vehicleID string) (model.Vehicle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.fleet.Get(vehicleID)
	if !ok {
		return model.Vehicle{}, fmt.Errorf("hail %s: %w", vehicleID, model.ErrUnknownVehicle)
	}
	e.matchedID = vehicleID
	return v, nil
}

// InitFleet builds a fresh fleet of count vehicles, discarding all state.
func (e *Engine) InitFleet(count int) model.FleetSnapshot {
	return e.ResetScene(count)
}

// ResetScene discards the fleet, the pending estimate, all bookings and
// their timers. Timers that already fired their goroutine see a stale
// generation and no-op.
func (e *Engine) ResetScene(count int) model.FleetSnapshot {
	e.mu.Lock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	e.bookings = make(map[string]model.Booking)
	e.pending = nil
	e.matchedID = ""
	e.lastBooked = nil
	e.fleet.Init(count)
	e.mu.Unlock()

	snap := e.Snapshot()
	e.log.Infof("scene reset: %d vehicles, generation %d", len(snap.Vehicles), snap.Generation)
	e.publish(SnapshotEvent{Snapshot: snap})
	return snap
}

// Snapshot assembles a consistent read-only view of the whole engine state.
func (e *Engine) Snapshot() model.FleetSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := model.FleetSnapshot{
		Vehicles:   e.fleet.Snapshot(),
		Generation: e.fleet.Generation(),
		MatchedID:  e.matchedID,
		TakenAt:    time.Now(),
	}
	if e.pending != nil {
		p := *e.pending
		snap.Pending = &p
	}
	if e.lastBooked != nil {
		b := *e.lastBooked
		snap.LastBooked = &b
	}
	if len(e.bookings) > 0 {
		snap.Bookings = make([]model.Booking, 0, len(e.bookings))
		for _, b := range e.bookings {
			snap.Bookings = append(snap.Bookings, b)
		}
		sort.Slice(snap.Bookings, func(i, j int) bool {
			return snap.Bookings[i].VehicleID < snap.Bookings[j].VehicleID
		})
	}
	return snap
}

// Close stops all outstanding release timers.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}

// release is the scheduled transition returning a reserved vehicle to the
// pool. gen is the fleet generation at confirm time; a mismatch means the
// scene was reset since and the booking no longer exists.
func (e *Engine) release(bk model.Booking, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.timers, bk.ID)
	if gen != e.fleet.Generation() {
		e.log.Debugf("release for %s ignored, fleet was reset", bk.VehicleID)
		return
	}
	if err := e.fleet.Release(bk.VehicleID); err != nil {
		e.log.Warnf("release %s: %v", bk.VehicleID, err)
		return
	}
	delete(e.bookings, bk.VehicleID)
	if e.matchedID == bk.VehicleID {
		e.matchedID = ""
	}
	if e.lastBooked != nil && e.lastBooked.ID == bk.ID {
		e.lastBooked = nil
	}
	e.log.Infof("booking %s completed, %s back in pool", bk.ID, bk.VehicleID)
	e.record(func() error {
		return e.sink.RecordRideEvent(metrics.RideEvent{
			Kind: metrics.EventReleased, VehicleID: bk.VehicleID,
			VehicleType: bk.VehicleType, Price: bk.Price, Time: time.Now(),
		})
	})
	e.publish(ReleaseEvent{VehicleID: bk.VehicleID, BookingID: bk.ID})
}

func (e *Engine) publish(ev Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) record(fn func() error) {
	if err := fn(); err != nil {
		e.log.Errorf("metrics error: %v", err)
	}
}
