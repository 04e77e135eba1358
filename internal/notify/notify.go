// Package notify delivers GCS events (telemetry snapshots, detection
// reports, mission lifecycle changes) to interested consumers: the
// dashboard over WebSocket, an optional MQTT broker, or the log.
package notify

import "time"

// Event kinds published by the service.
const (
	KindTelemetry = "telemetry"
	KindDetection = "detection"
	KindMission   = "mission"
	KindStatus    = "status"
)

// Event is a single notification about one vehicle.
type Event struct {
	Kind    string      `json:"kind"`
	DroneID int         `json:"drone_id"`
	Payload interface{} `json:"payload"`
	Time    time.Time   `json:"time"`
}

// Detection is the payload of a KindDetection event, parsed from the
// DET|id|lat|lon|conf|area status-text format the onboard computer
// reports over the MAVLink link.
type Detection struct {
	ObjectID   string  `json:"object_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Confidence float64 `json:"confidence"`
	AreaM2     float64 `json:"area_m2"`
}

// Sink receives events. Implementations must not block the caller for
// long; publishing happens on telemetry and protocol paths.
type Sink interface {
	Publish(ev Event)
}

// MultiSink fans one event out to several sinks.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(ev Event) {
	for _, s := range m {
		s.Publish(ev)
	}
}
