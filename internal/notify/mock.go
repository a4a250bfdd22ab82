package notify

import (
	"context"
	"sync"
)

// MockNotifier records events in memory. Used when no webhook is configured
// and by tests asserting one-shot alert behavior.
type MockNotifier struct {
	mu     sync.Mutex
	events []Event
}

func NewMock() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MockNotifier) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
