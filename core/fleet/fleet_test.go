package fleet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/citydispatch/ridesim/core/geo"
	"github.com/citydispatch/ridesim/core/model"
)

func testConfig(size int) Config {
	return Config{
		Size:          size,
		Bounds:        geo.Bounds{Width: 800, Height: 500, Margin: 20},
		MaxSpeed:      4,
		Jitter:        0.6,
		BouncePerturb: 0.5,
		Types: []model.VehicleType{
			{Name: "Economy", BaseFare: 2.0, PerKmRate: 0.8, SpeedKmh: 40, Color: "#4caf50"},
			{Name: "Comfort", BaseFare: 3.5, PerKmRate: 1.2, SpeedKmh: 50, Color: "#2196f3"},
			{Name: "Premium", BaseFare: 5.0, PerKmRate: 1.8, SpeedKmh: 60, Color: "#9c27b0"},
		},
	}
}

func TestNewFleetCountAndIDs(t *testing.T) {
	f, err := New(testConfig(5), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vs := f.Snapshot()
	if len(vs) != 5 {
		t.Fatalf("expected 5 vehicles, got %d", len(vs))
	}
	if vs[0].ID != "veh0001" || vs[4].ID != "veh0005" {
		t.Fatalf("unexpected ids %s %s", vs[0].ID, vs[4].ID)
	}
}

func TestNewFleetRoundRobinTypes(t *testing.T) {
	f, err := New(testConfig(7), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Economy", "Comfort", "Premium", "Economy", "Comfort", "Premium", "Economy"}
	for i, v := range f.Snapshot() {
		if v.Type != want[i] {
			t.Fatalf("vehicle %d: expected type %s got %s", i, want[i], v.Type)
		}
	}
}

func TestNewFleetValidation(t *testing.T) {
	cfg := testConfig(3)
	cfg.Types = nil
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for empty type registry")
	}
	cfg = testConfig(3)
	cfg.Types[0].SpeedKmh = 0
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for zero speed")
	}
}

func TestTickStaysInBounds(t *testing.T) {
	cfg := testConfig(20)
	f, err := New(cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 500; i++ {
		f.Tick()
	}
	for _, v := range f.Snapshot() {
		if !cfg.Bounds.Contains(v.Pos) {
			t.Fatalf("vehicle %s escaped bounds: %+v", v.ID, v.Pos)
		}
		if math.Abs(v.Vel.X) > cfg.MaxSpeed || math.Abs(v.Vel.Y) > cfg.MaxSpeed {
			t.Fatalf("vehicle %s velocity exceeds bound: %+v", v.ID, v.Vel)
		}
	}
}

func TestTickMovesUnavailableVehicles(t *testing.T) {
	f, err := New(testConfig(1), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.SetAvailable("veh0001", false); err != nil {
		t.Fatalf("set available: %v", err)
	}
	before := f.Snapshot()[0].Pos
	for i := 0; i < 10; i++ {
		f.Tick()
	}
	after := f.Snapshot()[0].Pos
	if before == after {
		t.Fatal("in-trip vehicle did not drift")
	}
}

func TestReleaseResetsVehicle(t *testing.T) {
	cfg := testConfig(3)
	f, err := New(cfg, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.SetAvailable("veh0002", false); err != nil {
		t.Fatalf("set available: %v", err)
	}
	if err := f.Release("veh0002"); err != nil {
		t.Fatalf("release: %v", err)
	}
	v, ok := f.Get("veh0002")
	if !ok || !v.Available {
		t.Fatalf("released vehicle not available: %+v", v)
	}
	if !cfg.Bounds.Contains(v.Pos) {
		t.Fatalf("released vehicle outside bounds: %+v", v.Pos)
	}
}

func TestReleaseUnknownVehicle(t *testing.T) {
	f, err := New(testConfig(1), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Release("veh9999"); err == nil {
		t.Fatal("expected error for unknown vehicle")
	}
}

func TestInitBumpsGeneration(t *testing.T) {
	f, err := New(testConfig(2), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := f.Generation()
	f.Init(4)
	if f.Generation() != g+1 {
		t.Fatalf("expected generation %d got %d", g+1, f.Generation())
	}
	if len(f.Snapshot()) != 4 {
		t.Fatalf("expected 4 vehicles after reinit")
	}
}

func TestSeededDeterminism(t *testing.T) {
	a, _ := New(testConfig(5), rand.New(rand.NewSource(99)))
	b, _ := New(testConfig(5), rand.New(rand.NewSource(99)))
	for i := 0; i < 50; i++ {
		a.Tick()
		b.Tick()
	}
	va, vb := a.Snapshot(), b.Snapshot()
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("seeded fleets diverged at %d: %+v vs %+v", i, va[i], vb[i])
		}
	}
}
