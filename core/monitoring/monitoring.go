package monitoring

import "time"

// Monitor reports unexpected errors and panics to an external tracker.
type Monitor interface {
	// CaptureException records err with optional key/value tags.
	CaptureException(err error, tags map[string]string)
	// Recover is meant to be deferred at the top of goroutines.
	Recover()
	// Flush blocks until buffered events are sent or the timeout expires.
	Flush(timeout time.Duration)
}

// NopMonitor discards every event. Used when no tracker is configured.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}
