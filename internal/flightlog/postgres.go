package flightlog

import (
	"context"
	"fmt"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *DB
}

// NewPostgresRepository creates a new PostgreSQL flight log repository
func NewPostgresRepository(db *DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the flight log tables if they do not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS flight_telemetry (
			id BIGSERIAL PRIMARY KEY,
			drone_id INTEGER NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			armed BOOLEAN NOT NULL,
			flight_mode VARCHAR(20) NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			altitude DOUBLE PRECISION,
			relative_altitude DOUBLE PRECISION,
			heading DOUBLE PRECISION,
			groundspeed DOUBLE PRECISION,
			battery_voltage DOUBLE PRECISION,
			battery_remaining SMALLINT,
			gps_fix_type SMALLINT,
			satellites_visible SMALLINT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_flight_telemetry_drone_time
			ON flight_telemetry (drone_id, recorded_at DESC);`,

		`CREATE TABLE IF NOT EXISTS flight_events (
			id BIGSERIAL PRIMARY KEY,
			drone_id INTEGER NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			kind VARCHAR(20) NOT NULL,
			detail TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_flight_events_drone_time
			ON flight_events (drone_id, recorded_at DESC);`,

		`CREATE TABLE IF NOT EXISTS flight_detections (
			id BIGSERIAL PRIMARY KEY,
			drone_id INTEGER NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			object_id VARCHAR(100) NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION,
			area_m2 DOUBLE PRECISION
		);`,
		`CREATE INDEX IF NOT EXISTS idx_flight_detections_drone_time
			ON flight_detections (drone_id, recorded_at DESC);`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to run flight log migration: %w", err)
		}
	}

	return nil
}

// SaveTelemetry saves a single telemetry sample
func (r *PostgresRepository) SaveTelemetry(ctx context.Context, sample *TelemetrySample) error {
	query := `
		INSERT INTO flight_telemetry (
			drone_id, recorded_at, armed, flight_mode,
			latitude, longitude, altitude, relative_altitude,
			heading, groundspeed,
			battery_voltage, battery_remaining,
			gps_fix_type, satellites_visible
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10,
			$11, $12,
			$13, $14
		)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		sample.DroneID, sample.RecordedAt, sample.Armed, sample.FlightMode,
		sample.Latitude, sample.Longitude, sample.Altitude, sample.RelativeAltitude,
		sample.Heading, sample.Groundspeed,
		sample.BatteryVoltage, sample.BatteryRemaining,
		sample.GPSFixType, sample.SatellitesVisible,
	).Scan(&sample.ID)

	if err != nil {
		return fmt.Errorf("failed to insert telemetry sample: %w", err)
	}

	return nil
}

// SaveEvent saves a lifecycle event
func (r *PostgresRepository) SaveEvent(ctx context.Context, event *EventRecord) error {
	query := `
		INSERT INTO flight_events (drone_id, recorded_at, kind, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		event.DroneID, event.RecordedAt, event.Kind, event.Detail,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to insert flight event: %w", err)
	}

	return nil
}

// SaveDetection saves a detection report
func (r *PostgresRepository) SaveDetection(ctx context.Context, detection *DetectionRecord) error {
	query := `
		INSERT INTO flight_detections (
			drone_id, recorded_at, object_id,
			latitude, longitude, confidence, area_m2
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		detection.DroneID, detection.RecordedAt, detection.ObjectID,
		detection.Latitude, detection.Longitude, detection.Confidence, detection.AreaM2,
	).Scan(&detection.ID)

	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}

	return nil
}

// RecentTelemetry retrieves the most recent telemetry samples for a drone
func (r *PostgresRepository) RecentTelemetry(ctx context.Context, droneID, limit int) ([]*TelemetrySample, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			id, drone_id, recorded_at, armed, flight_mode,
			latitude, longitude, altitude, relative_altitude,
			heading, groundspeed,
			battery_voltage, battery_remaining,
			gps_fix_type, satellites_visible
		FROM flight_telemetry
		WHERE drone_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, droneID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry samples: %w", err)
	}
	defer rows.Close()

	var results []*TelemetrySample
	for rows.Next() {
		sample := &TelemetrySample{}
		err := rows.Scan(
			&sample.ID, &sample.DroneID, &sample.RecordedAt, &sample.Armed, &sample.FlightMode,
			&sample.Latitude, &sample.Longitude, &sample.Altitude, &sample.RelativeAltitude,
			&sample.Heading, &sample.Groundspeed,
			&sample.BatteryVoltage, &sample.BatteryRemaining,
			&sample.GPSFixType, &sample.SatellitesVisible,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan telemetry sample: %w", err)
		}
		results = append(results, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating telemetry samples: %w", err)
	}

	return results, nil
}

// RecentEvents retrieves the most recent events for a drone
func (r *PostgresRepository) RecentEvents(ctx context.Context, droneID, limit int) ([]*EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, drone_id, recorded_at, kind, detail
		FROM flight_events
		WHERE drone_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, droneID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight events: %w", err)
	}
	defer rows.Close()

	var results []*EventRecord
	for rows.Next() {
		event := &EventRecord{}
		err := rows.Scan(&event.ID, &event.DroneID, &event.RecordedAt, &event.Kind, &event.Detail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight event: %w", err)
		}
		results = append(results, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flight events: %w", err)
	}

	return results, nil
}

// RecentDetections retrieves the most recent detections for a drone
func (r *PostgresRepository) RecentDetections(ctx context.Context, droneID, limit int) ([]*DetectionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			id, drone_id, recorded_at, object_id,
			latitude, longitude, confidence, area_m2
		FROM flight_detections
		WHERE drone_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, droneID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var results []*DetectionRecord
	for rows.Next() {
		detection := &DetectionRecord{}
		err := rows.Scan(
			&detection.ID, &detection.DroneID, &detection.RecordedAt, &detection.ObjectID,
			&detection.Latitude, &detection.Longitude, &detection.Confidence, &detection.AreaM2,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		results = append(results, detection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating detections: %w", err)
	}

	return results, nil
}
