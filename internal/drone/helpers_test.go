package drone

import (
	"time"

	"github.com/RanaPoddar/gcs-service/internal/mavlink"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

// testTiming shrinks every protocol delay so the state machines run in
// milliseconds.
func testTiming() *Timing {
	return &Timing{
		HeartbeatWait: 100 * time.Millisecond,
		StreamGap:     time.Millisecond,
		IngestPoll:    10 * time.Millisecond,
		UploadBackoff: 2 * time.Millisecond,
		HandoffWait:   30 * time.Millisecond,

		CommandPause:  5 * time.Millisecond,
		AckWait:       100 * time.Millisecond,
		ArmVerify:     50 * time.Millisecond,
		ModeVerify:    50 * time.Millisecond,
		ModeSettle:    time.Millisecond,
		ModeResendGap: time.Millisecond,
		VerifyEvery:   2 * time.Millisecond,

		ClearAckWait:  50 * time.Millisecond,
		CountReadback: 50 * time.Millisecond,
		DetectWindow:  100 * time.Millisecond,
		RequestWait:   50 * time.Millisecond,
		InterItem:     time.Millisecond,
		FinalAckWait:  100 * time.Millisecond,
		EEPROMSettle:  time.Millisecond,
		ReadbackWait:  50 * time.Millisecond,
		ReadbackPause: 2 * time.Millisecond,
		ItemBudget:    50 * time.Millisecond,
		UploadFloor:   time.Second,

		StatusWait: 20 * time.Millisecond,
		SimTick:    5 * time.Millisecond,
	}
}

// newTestConn wires a Connection directly to a transport, bypassing
// Connect, so individual protocol paths can be exercised in isolation.
func newTestConn(tr mavlink.Transport) (*Connection, *notify.MockSink) {
	sink := notify.NewMockSink()
	c := NewConnection(1, Options{
		Transport: tr,
		Sink:      sink,
		Timing:    testTiming(),
	})
	c.connected.Store(true)
	return c, sink
}

// setHealthy puts the snapshot in a flight-ready state.
func setHealthy(c *Connection, mode string, armed bool) {
	c.state.Update(func(t *Telemetry) {
		t.FlightMode = mode
		t.Armed = armed
		t.GPSFixType = 3
		t.SatellitesVisible = 12
		t.HDOP = 0.9
		t.BatteryVoltage = 12.6
		t.Latitude = 12.9716
		t.Longitude = 77.5946
		t.Altitude = 920
	})
}

func testWaypoints(n int) []Waypoint {
	wps := make([]Waypoint, n)
	for i := range wps {
		wps[i] = Waypoint{
			Latitude:  12.9716 + float64(i)*0.0001,
			Longitude: 77.5946 + float64(i)*0.0001,
			Altitude:  20,
		}
	}
	return wps
}
