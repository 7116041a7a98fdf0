package mqtt

import (
	"sync"

	"github.com/citydispatch/ridesim/core/model"
)

// MockPublisher records published snapshots for tests.
type MockPublisher struct {
	mu        sync.Mutex
	Snapshots []model.FleetSnapshot
	Err       error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishSnapshot stores the snapshot or returns the configured error.
func (m *MockPublisher) PublishSnapshot(s model.FleetSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Snapshots = append(m.Snapshots, s)
	return nil
}

// Count returns the number of snapshots published so far.
func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Snapshots)
}

// Close is a no-op.
func (m *MockPublisher) Close() {}
