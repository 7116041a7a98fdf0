package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/citydispatch/ridesim/core/metrics"
)

// PromSink records ride events and fleet samples as Prometheus metrics.
type PromSink struct {
	events    *prometheus.CounterVec
	prices    prometheus.Histogram
	fleetSize prometheus.Gauge
	available prometheus.Gauge
}

// NewPromSink registers the ride metrics on the default Prometheus
// registerer. The metrics server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one. Already registered
// collectors are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_events_total",
		Help: "Total number of ride lifecycle events",
	}, []string{"kind", "vehicle_type"})
	prices := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ride_quoted_price",
		Help:    "Quoted price per matched ride",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
	fleetSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_vehicles",
		Help: "Number of vehicles in the simulated fleet",
	})
	available := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_vehicles_available",
		Help: "Number of vehicles currently available for matching",
	})

	s := &PromSink{events: events, prices: prices, fleetSize: fleetSize, available: available}
	if err := register(reg, events, func(c prometheus.Collector) { s.events = c.(*prometheus.CounterVec) }); err != nil {
		return nil, err
	}
	if err := register(reg, prices, func(c prometheus.Collector) { s.prices = c.(prometheus.Histogram) }); err != nil {
		return nil, err
	}
	if err := register(reg, fleetSize, func(c prometheus.Collector) { s.fleetSize = c.(prometheus.Gauge) }); err != nil {
		return nil, err
	}
	if err := register(reg, available, func(c prometheus.Collector) { s.available = c.(prometheus.Gauge) }); err != nil {
		return nil, err
	}
	return s, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector, replace func(prometheus.Collector)) error {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			replace(are.ExistingCollector)
			return nil
		}
		return err
	}
	return nil
}

// RecordRideEvent increments the event counter and, for matched rides,
// observes the quoted price.
func (s *PromSink) RecordRideEvent(ev coremetrics.RideEvent) error {
	s.events.WithLabelValues(string(ev.Kind), ev.VehicleType).Inc()
	if ev.Kind == coremetrics.EventMatched {
		s.prices.Observe(ev.Price)
	}
	return nil
}

// RecordFleetSample updates the fleet gauges.
func (s *PromSink) RecordFleetSample(sm coremetrics.FleetSample) error {
	s.fleetSize.Set(float64(sm.Size))
	s.available.Set(float64(sm.Available))
	return nil
}
