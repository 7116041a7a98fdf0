package fleet

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/citydispatch/ridesim/core/geo"
	"github.com/citydispatch/ridesim/core/model"
)

// Config holds parameters for fleet generation and the motion model.
type Config struct {
	Size          int
	Bounds        geo.Bounds
	MaxSpeed      float64 // per-axis velocity bound, px per tick
	Jitter        float64 // symmetric per-tick velocity noise
	BouncePerturb float64 // extra noise applied to a bounced velocity
	Types         []model.VehicleType
}

// Fleet owns the simulated vehicles. All mutations happen under the lock;
// readers get deep copies via Snapshot so a tick is observed atomically.
type Fleet struct {
	mu         sync.RWMutex
	cfg        Config
	rng        *rand.Rand
	vehicles   []model.Vehicle
	generation uint64
}

// New creates a fleet of cfg.Size vehicles. A nil rng falls back to a
// time-seeded source; tests inject a seeded one for reproducibility.
func New(cfg Config, rng *rand.Rand) (*Fleet, error) {
	if len(cfg.Types) == 0 {
		return nil, fmt.Errorf("fleet: at least one vehicle type is required")
	}
	for _, t := range cfg.Types {
		if t.SpeedKmh <= 0 {
			return nil, fmt.Errorf("fleet: type %q has non-positive speed", t.Name)
		}
	}
	if cfg.MaxSpeed <= 0 {
		return nil, fmt.Errorf("fleet: max speed must be positive")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	f := &Fleet{cfg: cfg, rng: rng}
	f.Init(cfg.Size)
	return f, nil
}

// Init discards the current vehicles and creates count fresh ones, cycling
// through the type registry in round-robin order. The generation counter is
// bumped so release timers scheduled against the old fleet become no-ops.
func (f *Fleet) Init(count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if count <= 0 {
		count = f.cfg.Size
	}
	f.generation++
	f.vehicles = make([]model.Vehicle, count)
	for i := range f.vehicles {
		f.vehicles[i] = model.Vehicle{
			ID:        fmt.Sprintf("veh%04d", i+1),
			Type:      f.cfg.Types[i%len(f.cfg.Types)].Name,
			Pos:       f.randomPos(),
			Vel:       f.randomVel(),
			Available: true,
		}
	}
}

// Tick advances every vehicle one simulation step. Vehicles bounce off the
// inset map boundary with a perturbed velocity and accumulate a small
// jitter, clamped per axis to MaxSpeed. In-trip vehicles keep drifting too;
// the simulation deliberately does not park reserved vehicles.
func (f *Fleet) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.cfg.Bounds
	for i := range f.vehicles {
		v := &f.vehicles[i]
		v.Pos.X, v.Vel.X = f.stepAxis(v.Pos.X, v.Vel.X, b.Low(), b.HighX())
		v.Pos.Y, v.Vel.Y = f.stepAxis(v.Pos.Y, v.Vel.Y, b.Low(), b.HighY())
		v.Vel.X = clampMag(v.Vel.X+f.symmetric(f.cfg.Jitter), f.cfg.MaxSpeed)
		v.Vel.Y = clampMag(v.Vel.Y+f.symmetric(f.cfg.Jitter), f.cfg.MaxSpeed)
	}
}

// stepAxis moves one coordinate and handles the boundary bounce.
func (f *Fleet) stepAxis(pos, vel, lo, hi float64) (float64, float64) {
	next := pos + vel
	if next < lo {
		return lo, -vel + f.symmetric(f.cfg.BouncePerturb)
	}
	if next > hi {
		return hi, -vel + f.symmetric(f.cfg.BouncePerturb)
	}
	return next, vel
}

// Release resets the vehicle to a new random position and velocity and
// returns it to the available pool.
func (f *Fleet) Release(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.vehicles {
		if f.vehicles[i].ID == id {
			f.vehicles[i].Pos = f.randomPos()
			f.vehicles[i].Vel = f.randomVel()
			f.vehicles[i].Available = true
			return nil
		}
	}
	return fmt.Errorf("fleet: release %s: %w", id, model.ErrUnknownVehicle)
}

// Place moves a vehicle to a fixed position, clamped to bounds. Scripted
// scenarios and tests use it to set up deterministic geometry.
func (f *Fleet) Place(id string, pos geo.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.vehicles {
		if f.vehicles[i].ID == id {
			f.vehicles[i].Pos = f.cfg.Bounds.Clamp(pos)
			return nil
		}
	}
	return fmt.Errorf("fleet: place %s: %w", id, model.ErrUnknownVehicle)
}

// SetAvailable toggles the booking state of a vehicle.
func (f *Fleet) SetAvailable(id string, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.vehicles {
		if f.vehicles[i].ID == id {
			f.vehicles[i].Available = available
			return nil
		}
	}
	return fmt.Errorf("fleet: set available %s: %w", id, model.ErrUnknownVehicle)
}

// Get returns a copy of the vehicle with the given id.
func (f *Fleet) Get(id string) (model.Vehicle, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, v := range f.vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return model.Vehicle{}, false
}

// Snapshot returns a deep copy of the vehicle list in stable order.
func (f *Fleet) Snapshot() []model.Vehicle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]model.Vehicle, len(f.vehicles))
	copy(out, f.vehicles)
	return out
}

// Generation returns the current fleet generation. It changes on every
// Init, invalidating timers scheduled against earlier fleets.
func (f *Fleet) Generation() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.generation
}

// TypeByName looks up a vehicle type in the registry.
func (f *Fleet) TypeByName(name string) (model.VehicleType, bool) {
	for _, t := range f.cfg.Types {
		if t.Name == name {
			return t, true
		}
	}
	return model.VehicleType{}, false
}

// Bounds returns the map extent the fleet moves in.
func (f *Fleet) Bounds() geo.Bounds { return f.cfg.Bounds }

func (f *Fleet) randomPos() geo.Point {
	b := f.cfg.Bounds
	return geo.Point{
		X: b.Low() + f.rng.Float64()*(b.HighX()-b.Low()),
		Y: b.Low() + f.rng.Float64()*(b.HighY()-b.Low()),
	}
}

func (f *Fleet) randomVel() geo.Point {
	return geo.Point{
		X: f.symmetric(f.cfg.MaxSpeed),
		Y: f.symmetric(f.cfg.MaxSpeed),
	}
}

// symmetric draws uniformly from [-a, a].
func (f *Fleet) symmetric(a float64) float64 {
	return (f.rng.Float64()*2 - 1) * a
}

func clampMag(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < -max {
		return -max
	}
	return v
}
