package metrics

import (
	"errors"

	coremetrics "github.com/citydispatch/ridesim/core/metrics"
)

// MultiSink fans out every record to multiple sinks.
type MultiSink struct {
	sinks []coremetrics.MetricsSink
}

// NewMultiSink combines the given sinks into one.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordRideEvent(ev coremetrics.RideEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordRideEvent(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordFleetSample(sm coremetrics.FleetSample) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordFleetSample(sm); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewFromConfig builds a sink from the metrics configuration: none, one or
// a MultiSink of the enabled backends.
func NewFromConfig(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		sink, err := NewPromSink()
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
