package flightlog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/RanaPoddar/gcs-service/internal/drone"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

const saveTimeout = 2 * time.Second

// Recorder periodically samples every connected vehicle into the
// flight log.
type Recorder struct {
	repo     Repository
	registry *drone.Registry
	interval time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRecorder creates a recorder sampling the registry at the given
// interval.
func NewRecorder(repo Repository, registry *drone.Registry, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Recorder{
		repo:     repo,
		registry: registry,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start launches the sampling goroutine.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.loop()
}

// Stop halts sampling and waits for the goroutine to exit.
func (r *Recorder) Stop() {
	close(r.stop)
	r.wg.Wait()
}

func (r *Recorder) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sampleAll()
		}
	}
}

func (r *Recorder) sampleAll() {
	for _, conn := range r.registry.List() {
		if !conn.Connected() {
			continue
		}
		t := conn.Telemetry()
		sample := &TelemetrySample{
			DroneID:           conn.ID,
			RecordedAt:        time.Now(),
			Armed:             t.Armed,
			FlightMode:        t.FlightMode,
			Latitude:          t.Latitude,
			Longitude:         t.Longitude,
			Altitude:          t.Altitude,
			RelativeAltitude:  t.RelativeAltitude,
			Heading:           t.Heading,
			Groundspeed:       t.Groundspeed,
			BatteryVoltage:    t.BatteryVoltage,
			BatteryRemaining:  t.BatteryRemaining,
			GPSFixType:        t.GPSFixType,
			SatellitesVisible: t.SatellitesVisible,
		}

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := r.repo.SaveTelemetry(ctx, sample); err != nil {
			log.Printf("[flightlog] failed to save telemetry for drone %d: %v", conn.ID, err)
		}
		cancel()
	}
}

// Sink adapts the Repository into a notify.Sink so detections and
// mission lifecycle events reach the flight log. Writes happen on a
// separate goroutine; publishing must never block the telemetry or
// protocol paths.
type Sink struct {
	repo Repository
}

// NewSink creates a flight log sink over the repository.
func NewSink(repo Repository) *Sink {
	return &Sink{repo: repo}
}

// Publish implements notify.Sink.
func (s *Sink) Publish(ev notify.Event) {
	switch ev.Kind {
	case notify.KindDetection:
		det, ok := ev.Payload.(notify.Detection)
		if !ok {
			return
		}
		go s.saveDetection(ev.DroneID, ev.Time, det)
	case notify.KindMission, notify.KindStatus:
		go s.saveEvent(ev.DroneID, ev.Time, ev.Kind, eventDetail(ev.Payload))
	}
}

func (s *Sink) saveDetection(droneID int, at time.Time, det notify.Detection) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	record := &DetectionRecord{
		DroneID:    droneID,
		RecordedAt: at,
		ObjectID:   det.ObjectID,
		Latitude:   det.Latitude,
		Longitude:  det.Longitude,
		Confidence: det.Confidence,
		AreaM2:     det.AreaM2,
	}
	if err := s.repo.SaveDetection(ctx, record); err != nil {
		log.Printf("[flightlog] failed to save detection for drone %d: %v", droneID, err)
	}
}

func (s *Sink) saveEvent(droneID int, at time.Time, kind, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	record := &EventRecord{
		DroneID:    droneID,
		RecordedAt: at,
		Kind:       kind,
		Detail:     detail,
	}
	if err := s.repo.SaveEvent(ctx, record); err != nil {
		log.Printf("[flightlog] failed to save event for drone %d: %v", droneID, err)
	}
}

func eventDetail(payload interface{}) string {
	switch p := payload.(type) {
	case map[string]string:
		if v, ok := p["status"]; ok {
			return v
		}
		if v, ok := p["mission"]; ok {
			return v
		}
	case string:
		return p
	}
	return fmt.Sprintf("%v", payload)
}
