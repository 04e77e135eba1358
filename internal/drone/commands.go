package drone

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/RanaPoddar/gcs-service/internal/mavlink"
)

const (
	commandAttempts = 3

	minFixType   = 3    // 3D fix
	minSatsWarn  = 8    // below this, warn only
	lowVoltsWarn = 11.0 // healthy 3S floor; warn
	minVoltsHard = 10.5 // hard floor; refuse to fly

	// Typemask for SET_POSITION_TARGET_GLOBAL_INT: position-only, all
	// velocity/accel/yaw fields ignored.
	positionOnlyMask = 0x0FF8
)

// armableModes are the modes ArduCopter will arm from without a mission
// running.
var armableModes = map[string]bool{
	"STABILIZE": true,
	"GUIDED":    true,
	"LOITER":    true,
}

// Arm arms the vehicle. Hard pre-arm floors (battery, GPS fix) fail
// fast; soft issues are carried as diagnostics into the failure if the
// autopilot never confirms.
func (c *Connection) Arm() error {
	snap := c.state.Snapshot()
	if snap.Armed {
		return nil
	}

	var hard, soft []string
	if snap.BatteryVoltage > 0 && snap.BatteryVoltage < minVoltsHard {
		hard = append(hard, fmt.Sprintf("battery voltage %.1fV below %.1fV floor",
			snap.BatteryVoltage, minVoltsHard))
	}
	if snap.GPSFixType < 2 {
		hard = append(hard, fmt.Sprintf("no GPS fix (type %d)", snap.GPSFixType))
	}
	if len(hard) > 0 {
		return &PreconditionError{Op: "arm", Issues: hard}
	}
	if snap.GPSFixType < minFixType {
		soft = append(soft, fmt.Sprintf("GPS fix type %d below 3D fix", snap.GPSFixType))
	}
	if snap.SatellitesVisible < minSatsWarn {
		soft = append(soft, fmt.Sprintf("only %d satellites visible", snap.SatellitesVisible))
	}
	if snap.BatteryVoltage > 0 && snap.BatteryVoltage < lowVoltsWarn {
		soft = append(soft, fmt.Sprintf("battery voltage %.1fV is low", snap.BatteryVoltage))
	}
	for _, issue := range soft {
		log.Printf("[drone %d] pre-arm warning: %s", c.ID, issue)
	}

	if c.Simulation {
		c.state.Update(func(t *Telemetry) { t.Armed = true })
		return nil
	}

	if !armableModes[snap.FlightMode] {
		if err := c.SetMode("STABILIZE"); err != nil && mavlink.IsFatal(err) {
			return err
		}
		time.Sleep(c.timing.ModeSettle)
	}

	r := retrier{
		attempts:     commandAttempts,
		pause:        c.timing.CommandPause,
		verifyWindow: c.timing.ArmVerify,
		verifyEvery:  c.timing.VerifyEvery,
	}
	err := r.do(
		func() error {
			return c.sendCommand(common.MAV_CMD_COMPONENT_ARM_DISARM, 1, 0, 0, 0, 0, 0, 0)
		},
		func() bool { return c.state.Snapshot().Armed },
	)
	if err == nil {
		c.publishStatus("armed")
		return nil
	}
	if mavlink.IsFatal(err) {
		return err
	}

	after := c.state.Snapshot()
	return &ArmFailedError{
		Diagnostics: fmt.Sprintf("GPS: fix %d, %d sats; battery: %.1fV; mode: %s",
			after.GPSFixType, after.SatellitesVisible, after.BatteryVoltage, after.FlightMode),
		Issues:      soft,
		StatusTexts: c.state.LastStatusTexts(5),
	}
}

// Disarm disarms the vehicle. No verification beyond the send; disarm
// on the ground is not safety critical the way arm confirmation is.
func (c *Connection) Disarm() error {
	if c.Simulation {
		c.state.Update(func(t *Telemetry) { t.Armed = false })
		return nil
	}
	r := retrier{attempts: commandAttempts, pause: c.timing.CommandPause}
	err := r.do(func() error {
		return c.sendCommand(common.MAV_CMD_COMPONENT_ARM_DISARM, 0, 0, 0, 0, 0, 0, 0)
	}, nil)
	if err == nil {
		c.publishStatus("disarmed")
	}
	return err
}

// SetMode switches the flight mode and confirms the switch against
// heartbeat polling. On exhaustion it returns *ModeUnconfirmedError
// carrying the mode the vehicle actually reports.
func (c *Connection) SetMode(mode string) error {
	want := strings.ToUpper(mode)
	id, ok := mavlink.ModeID(want)
	if !ok {
		return &PreconditionError{Op: "set mode", Issues: []string{"unknown mode " + mode}}
	}

	if c.Simulation {
		c.state.Update(func(t *Telemetry) { t.FlightMode = want })
		return nil
	}

	r := retrier{
		attempts:     commandAttempts,
		pause:        c.timing.CommandPause,
		verifyWindow: c.timing.ModeVerify,
		verifyEvery:  c.timing.VerifyEvery,
	}
	err := r.do(
		func() error { return c.sendModeSwitch(id) },
		func() bool { return c.state.Snapshot().FlightMode == want },
	)
	if err == nil {
		return nil
	}
	if mavlink.IsFatal(err) {
		return err
	}
	current := c.state.Snapshot().FlightMode
	log.Printf("[drone %d] mode %s not confirmed, vehicle reports %s", c.ID, want, current)
	return &ModeUnconfirmedError{Mode: want, Current: current}
}

// sendModeSwitch sends DO_SET_MODE plus a doubled legacy SET_MODE;
// telemetry radios drop frames often enough that the redundancy pays
// for itself.
func (c *Connection) sendModeSwitch(customMode uint32) error {
	err := c.sendCommand(common.MAV_CMD_DO_SET_MODE,
		float32(common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED), float32(customMode),
		0, 0, 0, 0, 0)
	if err != nil {
		return err
	}
	setMode := &common.MessageSetMode{
		TargetSystem: c.transport.TargetSystem(),
		BaseMode:     common.MAV_MODE(common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED),
		CustomMode:   customMode,
	}
	if err := c.transport.Send(setMode); err != nil {
		return err
	}
	time.Sleep(c.timing.ModeResendGap)
	return c.transport.Send(setMode)
}

// Takeoff climbs to the given relative altitude. Requires an armed
// vehicle; switches to GUIDED first if needed.
func (c *Connection) Takeoff(altitude float64) error {
	snap := c.state.Snapshot()
	if !snap.Armed {
		return &PreconditionError{Op: "takeoff", Issues: []string{"vehicle not armed"}}
	}

	if c.Simulation {
		c.state.Update(func(t *Telemetry) {
			t.FlightMode = "GUIDED"
			t.RelativeAltitude = altitude
		})
		return nil
	}

	if snap.FlightMode != "GUIDED" {
		if err := c.SetMode("GUIDED"); err != nil {
			var unconfirmed *ModeUnconfirmedError
			if !errors.As(err, &unconfirmed) {
				return err
			}
		}
		time.Sleep(c.timing.ModeSettle)
	}

	sent := time.Now()
	err := c.sendCommand(common.MAV_CMD_NAV_TAKEOFF, 0, 0, 0, 0, 0, 0, float32(altitude))
	if err != nil {
		return err
	}
	return c.awaitAck("takeoff", common.MAV_CMD_NAV_TAKEOFF, sent)
}

// Land lands in place.
func (c *Connection) Land() error {
	if c.Simulation {
		c.state.Update(func(t *Telemetry) {
			t.FlightMode = "LAND"
			t.RelativeAltitude = 0
		})
		return nil
	}
	sent := time.Now()
	if err := c.sendCommand(common.MAV_CMD_NAV_LAND, 0, 0, 0, 0, 0, 0, 0); err != nil {
		return err
	}
	return c.awaitAck("land", common.MAV_CMD_NAV_LAND, sent)
}

// ReturnToLaunch switches to RTL. An unconfirmed switch is reported as
// success: the command was delivered and RTL frequently confirms late.
func (c *Connection) ReturnToLaunch() error {
	err := c.SetMode("RTL")
	var unconfirmed *ModeUnconfirmedError
	if errors.As(err, &unconfirmed) {
		return nil
	}
	return err
}

// Goto flies to a position in GUIDED mode at the given relative
// altitude.
func (c *Connection) Goto(lat, lon, alt float64) error {
	snap := c.state.Snapshot()
	if !snap.Armed {
		return &PreconditionError{Op: "goto", Issues: []string{"vehicle not armed"}}
	}

	if c.Simulation {
		c.state.Update(func(t *Telemetry) {
			t.FlightMode = "GUIDED"
			t.Latitude = lat
			t.Longitude = lon
			t.RelativeAltitude = alt
		})
		return nil
	}

	if snap.FlightMode != "GUIDED" {
		if err := c.SetMode("GUIDED"); err != nil {
			var unconfirmed *ModeUnconfirmedError
			if !errors.As(err, &unconfirmed) {
				return err
			}
		}
		time.Sleep(c.timing.ModeSettle)
	}

	return c.transport.Send(&common.MessageSetPositionTargetGlobalInt{
		TargetSystem:    c.transport.TargetSystem(),
		TargetComponent: c.transport.TargetComponent(),
		CoordinateFrame: common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT,
		TypeMask:        positionOnlyMask,
		LatInt:          int32(lat * 1e7),
		LonInt:          int32(lon * 1e7),
		Alt:             float32(alt),
	})
}

// awaitAck polls the snapshot for a COMMAND_ACK recorded by the
// ingestion loop. A missing ACK is logged but not fatal; an explicit
// rejection is.
func (c *Connection) awaitAck(op string, cmd common.MAV_CMD, sentAt time.Time) error {
	deadline := time.Now().Add(c.timing.AckWait)
	for time.Now().Before(deadline) {
		if result, ok := c.state.AckSince(cmd, sentAt); ok {
			if result == common.MAV_RESULT_ACCEPTED {
				return nil
			}
			return &RejectedError{Op: op, Code: int(result)}
		}
		time.Sleep(c.timing.VerifyEvery)
	}
	log.Printf("[drone %d] no ACK for %s within %s, proceeding", c.ID, op, c.timing.AckWait)
	return nil
}
