package notify

import "sync"

// MockSink records published events for tests.
type MockSink struct {
	mu     sync.Mutex
	events []Event
}

// NewMockSink creates a new mock sink.
func NewMockSink() *MockSink {
	return &MockSink{}
}

// Publish implements Sink.
func (s *MockSink) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of everything published so far.
func (s *MockSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// EventsOfKind returns published events of one kind.
func (s *MockSink) EventsOfKind(kind string) []Event {
	var out []Event
	for _, ev := range s.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
