package nats

import (
	"context"
	"sync"
)

// MockPublisher records lookup events in memory. Use it in place of a
// JetStream publisher in tests.
type MockPublisher struct {
	mu     sync.RWMutex
	events []*LookupEvent
	err    error
	closed bool
}

var _ Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishLookup stores event, or returns the error set by FailWith.
func (m *MockPublisher) PublishLookup(ctx context.Context, event *LookupEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (m *MockPublisher) Events() []*LookupEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*LookupEvent(nil), m.events...)
}

// EventCount returns how many events were recorded.
func (m *MockPublisher) EventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// EventsForNetwork returns the recorded events whose Network equals network.
func (m *MockPublisher) EventsForNetwork(network string) []*LookupEvent {
	var out []*LookupEvent
	for _, e := range m.Events() {
		if e.Network == network {
			out = append(out, e)
		}
	}
	return out
}

// FailWith makes every later PublishLookup return err. A nil err clears it.
func (m *MockPublisher) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Reset forgets events, the configured error and the closed flag.
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	m.err = nil
	m.closed = false
}

// Closed reports whether Close has been called.
func (m *MockPublisher) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
