package app

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	apifleet "github.com/citydispatch/ridesim/api/fleet"
	"github.com/citydispatch/ridesim/config"
	"github.com/citydispatch/ridesim/core/engine"
	"github.com/citydispatch/ridesim/core/fare"
	"github.com/citydispatch/ridesim/core/fleet"
	"github.com/citydispatch/ridesim/core/geo"
	"github.com/citydispatch/ridesim/core/match"
	"github.com/citydispatch/ridesim/core/model"
	coremon "github.com/citydispatch/ridesim/core/monitoring"
	"github.com/citydispatch/ridesim/infra/history"
	"github.com/citydispatch/ridesim/infra/logger"
	"github.com/citydispatch/ridesim/infra/metrics"
	inframon "github.com/citydispatch/ridesim/infra/monitoring"
	"github.com/citydispatch/ridesim/infra/mqtt"
	"github.com/citydispatch/ridesim/internal/eventbus"
)

// Service wires the configuration into a running simulation: engine,
// metrics sinks, the snapshot bus and the optional MQTT, HTTP and
// ride ledger surfaces.
type Service struct {
	Engine *engine.Engine
	bus    *eventbus.Bus[engine.Event]
	pub    mqtt.Publisher
	rides  *history.SQLiteStore
	mon    coremon.Monitor
	cfg    *config.Config
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	sink, err := metrics.NewFromConfig(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	var rng *rand.Rand
	if cfg.Sim.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Sim.Seed))
	}
	fl, err := fleet.New(fleet.Config{
		Size: cfg.Sim.FleetSize,
		Bounds: geo.Bounds{
			Width:  cfg.Sim.MapWidth,
			Height: cfg.Sim.MapHeight,
			Margin: cfg.Sim.Margin,
		},
		MaxSpeed:      cfg.Sim.MaxSpeed,
		Jitter:        cfg.Sim.Jitter,
		BouncePerturb: cfg.Sim.BouncePerturb,
		Types:         config.ModelTypes(cfg.Types),
	}, rng)
	if err != nil {
		return nil, fmt.Errorf("fleet: %w", err)
	}

	bus := eventbus.New[engine.Event](16)
	eng, err := engine.New(engine.Config{
		TickInterval:    cfg.Sim.TickInterval(),
		MinTripDuration: cfg.Sim.MinTripDuration(),
		PerMinute:       cfg.Sim.PerMinute(),
	}, fl, match.NearestMatcher{}, fare.Estimator{PxToKm: cfg.Sim.PxToKm}, logg, sink, bus)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	svc := &Service{Engine: eng, bus: bus, mon: mon, cfg: cfg, log: logg}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
	}
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("ride history: %w", err)
		}
		svc.rides = store
	}
	return svc, nil
}

// Run starts the simulation and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go func() {
		defer s.mon.Recover()
		s.Engine.Run(ctx)
	}()

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			defer s.mon.Recover()
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.pub != nil {
		go s.forwardSnapshots(ctx)
	}
	if s.rides != nil {
		go s.recordRides(ctx)
	}
	if s.cfg.API.Enabled {
		s.serveAPI(ctx)
	}

	s.log.Infof("simulation running: %d vehicles, tick every %s",
		s.cfg.Sim.FleetSize, s.cfg.Sim.TickInterval())
	<-ctx.Done()
	return nil
}

// forwardSnapshots relays per-tick snapshots from the bus to the MQTT
// publisher.
func (s *Service) forwardSnapshots(ctx context.Context) {
	defer s.mon.Recover()
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if se, ok := ev.(engine.SnapshotEvent); ok {
				if err := s.pub.PublishSnapshot(se.Snapshot); err != nil {
					s.log.Errorf("publish snapshot: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// recordRides appends booking and release events to the SQLite ledger.
func (s *Service) recordRides(ctx context.Context) {
	defer s.mon.Recover()
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case engine.BookingEvent:
				if err := s.rides.RecordBooking(e.Booking); err != nil {
					s.log.Errorf("record booking: %v", err)
					s.mon.CaptureException(err, map[string]string{"booking_id": e.Booking.ID})
				}
			case engine.ReleaseEvent:
				if err := s.rides.RecordRelease(e.BookingID, time.Now().UTC()); err != nil {
					s.log.Errorf("record release: %v", err)
					s.mon.CaptureException(err, map[string]string{"booking_id": e.BookingID})
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) serveAPI(ctx context.Context) {
	mux := http.NewServeMux()
	apifleet.NewHandler(s.Engine, s.log, s.rides).Register(mux)
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	go func() {
		s.log.Infof("api listening on %s", s.cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("api server: %v", err)
		}
	}()
}

// Snapshot exposes the current engine state for embedding callers.
func (s *Service) Snapshot() model.FleetSnapshot {
	return s.Engine.Snapshot()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Engine.Close()
	s.bus.Close()
	if s.pub != nil {
		s.pub.Close()
	}
	var err error
	if s.rides != nil {
		err = s.rides.Close()
	}
	s.mon.Flush(2 * time.Second)
	return err
}
