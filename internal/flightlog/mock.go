package flightlog

import "context"

// MockRepository is a mock implementation of Repository for testing
type MockRepository struct {
	SaveTelemetryFunc    func(ctx context.Context, sample *TelemetrySample) error
	SaveEventFunc        func(ctx context.Context, event *EventRecord) error
	SaveDetectionFunc    func(ctx context.Context, detection *DetectionRecord) error
	RecentTelemetryFunc  func(ctx context.Context, droneID, limit int) ([]*TelemetrySample, error)
	RecentEventsFunc     func(ctx context.Context, droneID, limit int) ([]*EventRecord, error)
	RecentDetectionsFunc func(ctx context.Context, droneID, limit int) ([]*DetectionRecord, error)
}

// NewMockRepository creates a new mock repository with default implementations
func NewMockRepository() *MockRepository {
	return &MockRepository{
		SaveTelemetryFunc: func(_ context.Context, _ *TelemetrySample) error {
			return nil
		},
		SaveEventFunc: func(_ context.Context, _ *EventRecord) error {
			return nil
		},
		SaveDetectionFunc: func(_ context.Context, _ *DetectionRecord) error {
			return nil
		},
		RecentTelemetryFunc: func(_ context.Context, _, _ int) ([]*TelemetrySample, error) {
			return []*TelemetrySample{}, nil
		},
		RecentEventsFunc: func(_ context.Context, _, _ int) ([]*EventRecord, error) {
			return []*EventRecord{}, nil
		},
		RecentDetectionsFunc: func(_ context.Context, _, _ int) ([]*DetectionRecord, error) {
			return []*DetectionRecord{}, nil
		},
	}
}

// SaveTelemetry implements Repository.SaveTelemetry
func (m *MockRepository) SaveTelemetry(ctx context.Context, sample *TelemetrySample) error {
	return m.SaveTelemetryFunc(ctx, sample)
}

// SaveEvent implements Repository.SaveEvent
func (m *MockRepository) SaveEvent(ctx context.Context, event *EventRecord) error {
	return m.SaveEventFunc(ctx, event)
}

// SaveDetection implements Repository.SaveDetection
func (m *MockRepository) SaveDetection(ctx context.Context, detection *DetectionRecord) error {
	return m.SaveDetectionFunc(ctx, detection)
}

// RecentTelemetry implements Repository.RecentTelemetry
func (m *MockRepository) RecentTelemetry(ctx context.Context, droneID, limit int) ([]*TelemetrySample, error) {
	return m.RecentTelemetryFunc(ctx, droneID, limit)
}

// RecentEvents implements Repository.RecentEvents
func (m *MockRepository) RecentEvents(ctx context.Context, droneID, limit int) ([]*EventRecord, error) {
	return m.RecentEventsFunc(ctx, droneID, limit)
}

// RecentDetections implements Repository.RecentDetections
func (m *MockRepository) RecentDetections(ctx context.Context, droneID, limit int) ([]*DetectionRecord, error) {
	return m.RecentDetectionsFunc(ctx, droneID, limit)
}
