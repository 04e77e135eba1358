package mavlink

import (
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// MockTransport is an in-memory Transport for tests. Inbound messages
// are scripted with Inject; outbound messages are recorded and handed
// to SendHook, which lets a test act as the autopilot on the other end
// of the link.
type MockTransport struct {
	incoming chan message.Message
	done     chan struct{}

	mu       sync.Mutex
	sent     []message.Message
	closed   bool
	SendHook func(message.Message)
	SendErr  error
}

// NewMockTransport creates a mock transport with a buffered inbound
// queue.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		incoming: make(chan message.Message, 256),
		done:     make(chan struct{}),
	}
}

// Inject queues an inbound message as if the autopilot had sent it.
func (m *MockTransport) Inject(msg message.Message) {
	select {
	case m.incoming <- msg:
	case <-m.done:
	}
}

// Send records the outbound message and invokes SendHook.
func (m *MockTransport) Send(msg message.Message) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return &TransportError{Op: "send", Err: errLinkClosed}
	}
	if m.SendErr != nil {
		err := m.SendErr
		m.mu.Unlock()
		return err
	}
	m.sent = append(m.sent, msg)
	hook := m.SendHook
	m.mu.Unlock()

	// Outside the lock so the hook may Inject or inspect Sent.
	if hook != nil {
		hook(msg)
	}
	return nil
}

// Receive implements Transport.Receive against the injected queue.
func (m *MockTransport) Receive(timeout time.Duration, match MatchFunc) (message.Message, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case msg := <-m.incoming:
			if match == nil || match(msg) {
				return msg, nil
			}
		case <-m.done:
			return nil, &TransportError{Op: "receive", Err: errLinkClosed}
		case <-deadline.C:
			return nil, ErrTimeout
		}
	}
}

// ReceiveAny implements Transport.ReceiveAny.
func (m *MockTransport) ReceiveAny(timeout time.Duration) (message.Message, error) {
	return m.Receive(timeout, nil)
}

// Drain implements Transport.Drain.
func (m *MockTransport) Drain() {
	for {
		select {
		case <-m.incoming:
		default:
			return
		}
	}
}

// Sent returns a copy of every message sent so far.
func (m *MockTransport) Sent() []message.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]message.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// TargetSystem implements Transport.TargetSystem.
func (m *MockTransport) TargetSystem() uint8 { return 1 }

// TargetComponent implements Transport.TargetComponent.
func (m *MockTransport) TargetComponent() uint8 { return 1 }

// Close marks the link as failed; subsequent operations return a
// *TransportError.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}
