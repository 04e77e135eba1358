package notify

import "log"

// ConsoleSink logs events instead of delivering them anywhere. Used in
// development and as the fallback when no hub or broker is configured.
type ConsoleSink struct{}

// NewConsoleSink creates a console sink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

// Publish implements Sink.
func (s *ConsoleSink) Publish(ev Event) {
	switch ev.Kind {
	case KindTelemetry:
		// Telemetry ticks are too chatty for the log.
	case KindDetection:
		log.Printf("[notify] drone %d detection: %+v", ev.DroneID, ev.Payload)
	default:
		log.Printf("[notify] drone %d %s: %v", ev.DroneID, ev.Kind, ev.Payload)
	}
}
