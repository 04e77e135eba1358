package drone

import (
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/RanaPoddar/gcs-service/internal/mavlink"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

const (
	radToDeg = 180.0 / math.Pi

	// Wire sentinels for "unknown".
	headingUnknown = 65535 // GLOBAL_POSITION_INT.hdg, cdeg
	hdopUnknown    = 65535 // GPS_RAW_INT.eph
)

// ingestLoop drains the link into the state snapshot. While a mission
// upload owns the transport it backs off without touching the link;
// mission traffic must reach the transfer protocol, not die here.
func (c *Connection) ingestLoop() {
	defer c.wg.Done()

	errCount := 0
	for c.running.Load() {
		if c.uploading.Load() {
			time.Sleep(c.timing.UploadBackoff)
			continue
		}

		msg, err := c.transport.ReceiveAny(c.timing.IngestPoll)
		if err != nil {
			if errors.Is(err, mavlink.ErrTimeout) {
				continue
			}
			if mavlink.IsFatal(err) {
				c.handleLinkDown(err)
				return
			}
			errCount++
			if errCount%5 == 0 {
				log.Printf("[drone %d] telemetry degraded: %d consecutive errors (last: %v)",
					c.ID, errCount, err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		errCount = 0
		c.apply(msg)
	}
}

// apply folds one inbound message into the state snapshot.
func (c *Connection) apply(msg message.Message) {
	now := time.Now()
	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		c.state.Update(func(t *Telemetry) {
			t.Armed = mavlink.HeartbeatArmed(m)
			t.FlightMode = mavlink.HeartbeatMode(m)
			t.Timestamp = now
		})

	case *common.MessageGlobalPositionInt:
		c.state.Update(func(t *Telemetry) {
			t.Latitude = float64(m.Lat) / 1e7
			t.Longitude = float64(m.Lon) / 1e7
			t.Altitude = float64(m.Alt) / 1000
			t.RelativeAltitude = float64(m.RelativeAlt) / 1000
			if m.Hdg != headingUnknown {
				t.Heading = float64(m.Hdg) / 100
			}
			vx, vy := float64(m.Vx)/100, float64(m.Vy)/100
			t.Groundspeed = math.Sqrt(vx*vx + vy*vy)
			t.Timestamp = now
		})

	case *common.MessageAttitude:
		c.state.Update(func(t *Telemetry) {
			t.Roll = float64(m.Roll) * radToDeg
			t.Pitch = float64(m.Pitch) * radToDeg
			t.Yaw = float64(m.Yaw) * radToDeg
			t.Timestamp = now
		})

	case *common.MessageSysStatus:
		c.state.Update(func(t *Telemetry) {
			t.BatteryVoltage = float64(m.VoltageBattery) / 1000
			t.BatteryCurrent = float64(m.CurrentBattery) / 100
			t.BatteryRemaining = int(m.BatteryRemaining)
			t.Timestamp = now
		})

	case *common.MessageGpsRawInt:
		c.state.Update(func(t *Telemetry) {
			t.GPSFixType = int(m.FixType)
			t.SatellitesVisible = int(m.SatellitesVisible)
			if m.Eph != hdopUnknown {
				t.HDOP = float64(m.Eph) / 100
			}
			t.Timestamp = now
		})

	case *common.MessageVfrHud:
		c.state.Update(func(t *Telemetry) {
			t.Airspeed = float64(m.Airspeed)
			t.ClimbRate = float64(m.Climb)
			t.Throttle = int(m.Throttle)
			if t.Groundspeed == 0 {
				t.Groundspeed = float64(m.Groundspeed)
			}
			if t.RelativeAltitude == 0 {
				t.RelativeAltitude = float64(m.Alt)
			}
			t.Timestamp = now
		})

	case *common.MessageStatustext:
		c.handleStatusText(m, now)

	case *common.MessageCommandAck:
		c.state.RecordAck(m.Command, m.Result)

	case *common.MessageMissionCurrent:
		c.state.RecordMissionCurrent(int(m.Seq))
	}
}

func (c *Connection) handleStatusText(m *common.MessageStatustext, now time.Time) {
	text := strings.TrimRight(m.Text, "\x00")
	c.state.AppendStatusText(StatusText{
		Severity: int(m.Severity),
		Text:     text,
		Time:     now,
	})
	log.Printf("[drone %d] statustext (sev %d): %s", c.ID, m.Severity, text)

	if det, ok := parseDetection(text); ok {
		c.sink.Publish(notify.Event{
			Kind:    notify.KindDetection,
			DroneID: c.ID,
			Payload: det,
			Time:    now,
		})
	}
}

// parseDetection decodes the onboard computer's detection report
// format: DET|object_id|lat|lon|confidence|area_m2. Malformed reports
// are ignored; they share the channel with free-form autopilot text.
func parseDetection(text string) (notify.Detection, bool) {
	if !strings.HasPrefix(text, "DET|") {
		return notify.Detection{}, false
	}
	parts := strings.Split(text, "|")
	if len(parts) != 6 {
		return notify.Detection{}, false
	}
	lat, err1 := strconv.ParseFloat(parts[2], 64)
	lon, err2 := strconv.ParseFloat(parts[3], 64)
	conf, err3 := strconv.ParseFloat(parts[4], 64)
	area, err4 := strconv.ParseFloat(parts[5], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return notify.Detection{}, false
	}
	return notify.Detection{
		ObjectID:   parts[1],
		Latitude:   lat,
		Longitude:  lon,
		Confidence: conf,
		AreaM2:     area,
	}, true
}
