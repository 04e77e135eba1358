package flightlog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB sets up a PostgreSQL test container and returns a
// migrated repository.
func setupTestDB(t *testing.T) (*PostgresRepository, func()) {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_flightlog"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute)),
	)
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	db := &DB{DB: sqlDB}
	repo := NewPostgresRepository(db)

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return repo, cleanup
}

func testSample(droneID int, at time.Time) *TelemetrySample {
	return &TelemetrySample{
		DroneID:           droneID,
		RecordedAt:        at,
		Armed:             true,
		FlightMode:        "AUTO",
		Latitude:          12.9716,
		Longitude:         77.5946,
		Altitude:          920.5,
		RelativeAltitude:  15.0,
		Heading:           270.0,
		Groundspeed:       4.8,
		BatteryVoltage:    15.9,
		BatteryRemaining:  82,
		GPSFixType:        3,
		SatellitesVisible: 12,
	}
}

func TestPostgresRepository_SaveTelemetry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sample := testSample(1, time.Now())

	err := repo.SaveTelemetry(ctx, sample)

	require.NoError(t, err)
	assert.NotZero(t, sample.ID)
}

func TestPostgresRepository_RecentTelemetry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	// Samples for two drones; queries must stay per-drone.
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveTelemetry(ctx, testSample(1, base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, repo.SaveTelemetry(ctx, testSample(2, base)))

	results, err := repo.RecentTelemetry(ctx, 1, 3)

	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, s := range results {
		assert.Equal(t, 1, s.DroneID)
		assert.Equal(t, "AUTO", s.FlightMode)
		assert.True(t, s.Armed)
	}
	// Newest first.
	assert.True(t, results[0].RecordedAt.After(results[1].RecordedAt))
}

func TestPostgresRepository_SaveAndRecentEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	events := []string{"connected", "uploaded 7 items", "started", "stopped"}
	for i, detail := range events {
		err := repo.SaveEvent(ctx, &EventRecord{
			DroneID:    1,
			RecordedAt: base.Add(time.Duration(i) * time.Second),
			Kind:       "mission",
			Detail:     detail,
		})
		require.NoError(t, err)
	}

	results, err := repo.RecentEvents(ctx, 1, 10)

	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "stopped", results[0].Detail)
	assert.Equal(t, "connected", results[3].Detail)
}

func TestPostgresRepository_SaveAndRecentDetections(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	detection := &DetectionRecord{
		DroneID:    1,
		RecordedAt: time.Now(),
		ObjectID:   "obj-12",
		Latitude:   12.9717,
		Longitude:  77.5948,
		Confidence: 0.87,
		AreaM2:     3.6,
	}
	require.NoError(t, repo.SaveDetection(ctx, detection))
	assert.NotZero(t, detection.ID)

	results, err := repo.RecentDetections(ctx, 1, 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "obj-12", results[0].ObjectID)
	assert.InDelta(t, 0.87, results[0].Confidence, 1e-9)
}

func TestPostgresRepository_RecentDefaultsLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.SaveTelemetry(ctx, testSample(1, time.Now())))

	// Non-positive limit falls back to the default.
	results, err := repo.RecentTelemetry(ctx, 1, 0)

	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPostgresRepository_MigrateIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Migrate(context.Background()))
}
