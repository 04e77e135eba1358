package flightlog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPoddar/gcs-service/internal/drone"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

// collectingRepo records everything saved into it, safely across
// goroutines.
type collectingRepo struct {
	*MockRepository

	mu         sync.Mutex
	telemetry  []*TelemetrySample
	events     []*EventRecord
	detections []*DetectionRecord
}

func newCollectingRepo() *collectingRepo {
	r := &collectingRepo{MockRepository: NewMockRepository()}
	r.SaveTelemetryFunc = func(_ context.Context, s *TelemetrySample) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.telemetry = append(r.telemetry, s)
		return nil
	}
	r.SaveEventFunc = func(_ context.Context, e *EventRecord) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	}
	r.SaveDetectionFunc = func(_ context.Context, d *DetectionRecord) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.detections = append(r.detections, d)
		return nil
	}
	return r
}

func (r *collectingRepo) telemetryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.telemetry)
}

func (r *collectingRepo) lastDetection() *DetectionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.detections) == 0 {
		return nil
	}
	return r.detections[len(r.detections)-1]
}

func (r *collectingRepo) lastEvent() *EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func TestRecorder_SamplesConnectedDrones(t *testing.T) {
	repo := newCollectingRepo()
	registry := drone.NewRegistry()

	conn := drone.NewConnection(1, drone.Options{Simulation: true})
	require.NoError(t, conn.Connect())
	defer conn.Disconnect()
	registry.Put(conn)

	recorder := NewRecorder(repo, registry, 10*time.Millisecond)
	recorder.Start()
	defer recorder.Stop()

	assert.Eventually(t, func() bool {
		return repo.telemetryCount() >= 2
	}, time.Second, 5*time.Millisecond)

	repo.mu.Lock()
	sample := repo.telemetry[0]
	repo.mu.Unlock()
	assert.Equal(t, 1, sample.DroneID)
	assert.NotZero(t, sample.Latitude)
	assert.NotZero(t, sample.BatteryVoltage)
}

func TestRecorder_SkipsDisconnectedDrones(t *testing.T) {
	repo := newCollectingRepo()
	registry := drone.NewRegistry()

	// Registered but never connected.
	registry.Put(drone.NewConnection(2, drone.Options{Simulation: true}))

	recorder := NewRecorder(repo, registry, 10*time.Millisecond)
	recorder.Start()

	time.Sleep(50 * time.Millisecond)
	recorder.Stop()

	assert.Zero(t, repo.telemetryCount())
}

func TestRecorder_StopHaltsSampling(t *testing.T) {
	repo := newCollectingRepo()
	registry := drone.NewRegistry()

	conn := drone.NewConnection(1, drone.Options{Simulation: true})
	require.NoError(t, conn.Connect())
	defer conn.Disconnect()
	registry.Put(conn)

	recorder := NewRecorder(repo, registry, 10*time.Millisecond)
	recorder.Start()
	assert.Eventually(t, func() bool {
		return repo.telemetryCount() >= 1
	}, time.Second, 5*time.Millisecond)
	recorder.Stop()

	after := repo.telemetryCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, repo.telemetryCount())
}

func TestSink_PersistsDetections(t *testing.T) {
	repo := newCollectingRepo()
	sink := NewSink(repo)

	at := time.Now()
	sink.Publish(notify.Event{
		Kind:    notify.KindDetection,
		DroneID: 3,
		Payload: notify.Detection{
			ObjectID:   "obj-7",
			Latitude:   12.97,
			Longitude:  77.59,
			Confidence: 0.91,
			AreaM2:     4.2,
		},
		Time: at,
	})

	assert.Eventually(t, func() bool {
		return repo.lastDetection() != nil
	}, time.Second, 5*time.Millisecond)

	det := repo.lastDetection()
	assert.Equal(t, 3, det.DroneID)
	assert.Equal(t, "obj-7", det.ObjectID)
	assert.InDelta(t, 12.97, det.Latitude, 1e-9)
	assert.InDelta(t, 0.91, det.Confidence, 1e-9)
}

func TestSink_PersistsMissionAndStatusEvents(t *testing.T) {
	repo := newCollectingRepo()
	sink := NewSink(repo)

	sink.Publish(notify.Event{
		Kind:    notify.KindMission,
		DroneID: 1,
		Payload: map[string]string{"mission": "started"},
		Time:    time.Now(),
	})

	assert.Eventually(t, func() bool {
		return repo.lastEvent() != nil
	}, time.Second, 5*time.Millisecond)

	ev := repo.lastEvent()
	assert.Equal(t, notify.KindMission, ev.Kind)
	assert.Equal(t, "started", ev.Detail)

	sink.Publish(notify.Event{
		Kind:    notify.KindStatus,
		DroneID: 1,
		Payload: map[string]string{"status": "armed"},
		Time:    time.Now(),
	})

	assert.Eventually(t, func() bool {
		ev := repo.lastEvent()
		return ev != nil && ev.Kind == notify.KindStatus
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "armed", repo.lastEvent().Detail)
}

func TestSink_IgnoresTelemetryEvents(t *testing.T) {
	repo := newCollectingRepo()
	sink := NewSink(repo)

	// Telemetry streams through the recorder's sampling, not the sink.
	sink.Publish(notify.Event{
		Kind:    notify.KindTelemetry,
		DroneID: 1,
		Payload: struct{}{},
		Time:    time.Now(),
	})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, repo.telemetryCount())
	assert.Nil(t, repo.lastEvent())
}

func TestEventDetail(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    string
	}{
		{"status map", map[string]string{"status": "link lost"}, "link lost"},
		{"mission map", map[string]string{"mission": "uploaded 7 items"}, "uploaded 7 items"},
		{"plain string", "hello", "hello"},
		{"fallback", 42, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventDetail(tt.payload))
		})
	}
}
