package metrics

import (
	"errors"
	"testing"

	coremetrics "github.com/citydispatch/ridesim/core/metrics"
)

type recordingSink struct {
	events  int
	samples int
	fail    bool
}

func (r *recordingSink) RecordRideEvent(coremetrics.RideEvent) error {
	r.events++
	if r.fail {
		return errors.New("sink failed")
	}
	return nil
}

func (r *recordingSink) RecordFleetSample(coremetrics.FleetSample) error {
	r.samples++
	return nil
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordRideEvent(coremetrics.RideEvent{Kind: coremetrics.EventRequested}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RecordFleetSample(coremetrics.FleetSample{Size: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.events != 1 || b.events != 1 || a.samples != 1 || b.samples != 1 {
		t.Fatalf("fan-out incomplete: %+v %+v", a, b)
	}
}

func TestMultiSinkCollectsErrors(t *testing.T) {
	a, b := &recordingSink{fail: true}, &recordingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordRideEvent(coremetrics.RideEvent{}); err == nil {
		t.Fatal("expected error from failing sink")
	}
	if b.events != 1 {
		t.Fatal("healthy sink must still record")
	}
}

func TestNewFromConfigNop(t *testing.T) {
	sink, err := NewFromConfig(coremetrics.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", sink)
	}
}
