package mqtt

import (
	"fmt"
	"sync"
)

// MockPublisher records setpoints in memory for tests.
type MockPublisher struct {
	mu        sync.Mutex
	Setpoints []Setpoint
	FailAfter int // fail once this many setpoints were recorded, -1 disables
	closed    bool
}

// NewMockPublisher creates a MockPublisher that never fails.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailAfter: -1}
}

// Publish stores the setpoint or fails when configured to.
func (m *MockPublisher) Publish(sp Setpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("publisher closed")
	}
	if m.FailAfter >= 0 && len(m.Setpoints) >= m.FailAfter {
		return fmt.Errorf("publish failed")
	}
	m.Setpoints = append(m.Setpoints, sp)
	return nil
}

// Close marks the publisher as closed.
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Count returns how many setpoints were recorded.
func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Setpoints)
}
