// Package mavlink provides the MAVLink link layer for the GCS service:
// message send/receive with explicit timeouts over a serial or UDP
// endpoint, plus the ArduCopter flight-mode table.
package mavlink

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// GCSSystemID is the MAVLink system id this service identifies as.
const GCSSystemID = 255

// ErrTimeout is returned by Receive and ReceiveAny when no matching
// message arrived within the timeout. It is not fatal to the link.
var ErrTimeout = errors.New("mavlink: receive timed out")

var errLinkClosed = errors.New("link closed")

// TransportError indicates a fatal link failure (closed port, broken
// pipe). It aborts whatever protocol is in flight and propagates as a
// disconnect.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mavlink transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsFatal reports whether err is a fatal transport failure as opposed
// to a step-local timeout.
func IsFatal(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// MatchFunc selects which inbound message a Receive call is waiting
// for. Non-matching messages are consumed and discarded, matching
// pymavlink's recv_match semantics.
type MatchFunc func(message.Message) bool

// Transport is the link to one autopilot. Exactly one logical owner may
// be actively receiving at a time; arbitration between the telemetry
// ingestion loop and the mission transfer protocol happens above this
// layer.
type Transport interface {
	// Send transmits a single message, fire-and-forget. No implicit
	// retry.
	Send(msg message.Message) error

	// Receive blocks up to timeout for the next message accepted by
	// match, discarding non-matching traffic. Returns ErrTimeout on
	// expiry and *TransportError on link failure.
	Receive(timeout time.Duration, match MatchFunc) (message.Message, error)

	// ReceiveAny is Receive without a filter.
	ReceiveAny(timeout time.Duration) (message.Message, error)

	// Drain discards everything currently buffered without blocking.
	Drain()

	// TargetSystem and TargetComponent identify the autopilot, learned
	// from the first received frame.
	TargetSystem() uint8
	TargetComponent() uint8

	Close() error
}

// nodeTransport backs Transport with a gomavlib node over a single
// serial or UDP endpoint.
type nodeTransport struct {
	node   *gomavlib.Node
	events <-chan gomavlib.Event

	mu              sync.Mutex
	haveTarget      bool
	targetSystem    uint8
	targetComponent uint8
}

// Dial opens the link to an autopilot. The endpoint is either a serial
// device path ("/dev/ttyUSB0", with baud) or a UDP address
// ("udp://192.168.4.1:14550").
func Dial(endpoint string, baud int) (Transport, error) {
	var ep gomavlib.EndpointConf
	if addr, ok := strings.CutPrefix(endpoint, "udp://"); ok {
		ep = gomavlib.EndpointUDPClient{Address: addr}
	} else {
		ep = gomavlib.EndpointSerial{Device: endpoint, Baud: baud}
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   []gomavlib.EndpointConf{ep},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: GCSSystemID,
	})
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}

	return &nodeTransport{
		node:   node,
		events: node.Events(),
		// Defaults until the first frame tells us otherwise.
		targetSystem:    1,
		targetComponent: 1,
	}, nil
}

func (t *nodeTransport) Send(msg message.Message) error {
	if err := t.node.WriteMessageAll(msg); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func (t *nodeTransport) Receive(timeout time.Duration, match MatchFunc) (message.Message, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return nil, &TransportError{Op: "receive", Err: errLinkClosed}
			}
			frame, ok := ev.(*gomavlib.EventFrame)
			if !ok {
				continue
			}
			t.noteSender(frame)
			msg := frame.Message()
			if match == nil || match(msg) {
				return msg, nil
			}
		case <-deadline.C:
			return nil, ErrTimeout
		}
	}
}

func (t *nodeTransport) ReceiveAny(timeout time.Duration) (message.Message, error) {
	return t.Receive(timeout, nil)
}

func (t *nodeTransport) Drain() {
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return
			}
			if frame, isFrame := ev.(*gomavlib.EventFrame); isFrame {
				t.noteSender(frame)
			}
		default:
			return
		}
	}
}

func (t *nodeTransport) noteSender(frame *gomavlib.EventFrame) {
	// The GCS talks to a single autopilot; the first frame pins the
	// target addressing, same as pymavlink's wait_heartbeat.
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.haveTarget && frame.SystemID() != GCSSystemID {
		t.targetSystem = frame.SystemID()
		t.targetComponent = frame.ComponentID()
		t.haveTarget = true
	}
}

func (t *nodeTransport) TargetSystem() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.targetSystem
}

func (t *nodeTransport) TargetComponent() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.targetComponent
}

func (t *nodeTransport) Close() error {
	t.node.Close()
	return nil
}
