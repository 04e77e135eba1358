// Package flightlog persists flight history: periodic telemetry
// samples, mission lifecycle events, and detection reports. The flight
// log is optional; the service runs without a database.
package flightlog

import (
	"context"
	"time"
)

// TelemetrySample is one persisted telemetry snapshot of a vehicle.
type TelemetrySample struct {
	ID                int64     `json:"id"`
	DroneID           int       `json:"drone_id"`
	RecordedAt        time.Time `json:"recorded_at"`
	Armed             bool      `json:"armed"`
	FlightMode        string    `json:"flight_mode"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Altitude          float64   `json:"altitude"`
	RelativeAltitude  float64   `json:"relative_altitude"`
	Heading           float64   `json:"heading"`
	Groundspeed       float64   `json:"groundspeed"`
	BatteryVoltage    float64   `json:"battery_voltage"`
	BatteryRemaining  int       `json:"battery_remaining"`
	GPSFixType        int       `json:"gps_fix_type"`
	SatellitesVisible int       `json:"satellites_visible"`
}

// EventRecord is one persisted mission or connection lifecycle event.
type EventRecord struct {
	ID         int64     `json:"id"`
	DroneID    int       `json:"drone_id"`
	RecordedAt time.Time `json:"recorded_at"`
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail"`
}

// DetectionRecord is one persisted detection report.
type DetectionRecord struct {
	ID         int64     `json:"id"`
	DroneID    int       `json:"drone_id"`
	RecordedAt time.Time `json:"recorded_at"`
	ObjectID   string    `json:"object_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Confidence float64   `json:"confidence"`
	AreaM2     float64   `json:"area_m2"`
}

// Repository defines the interface for flight log data access
type Repository interface {
	// SaveTelemetry saves a single telemetry sample
	SaveTelemetry(ctx context.Context, sample *TelemetrySample) error

	// SaveEvent saves a lifecycle event
	SaveEvent(ctx context.Context, event *EventRecord) error

	// SaveDetection saves a detection report
	SaveDetection(ctx context.Context, detection *DetectionRecord) error

	// RecentTelemetry retrieves the most recent telemetry samples for a drone
	RecentTelemetry(ctx context.Context, droneID, limit int) ([]*TelemetrySample, error)

	// RecentEvents retrieves the most recent events for a drone
	RecentEvents(ctx context.Context, droneID, limit int) ([]*EventRecord, error)

	// RecentDetections retrieves the most recent detections for a drone
	RecentDetections(ctx context.Context, droneID, limit int) ([]*DetectionRecord, error)
}
