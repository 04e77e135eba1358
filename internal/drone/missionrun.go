package drone

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/RanaPoddar/gcs-service/internal/mavlink"
)

const (
	maxStartHDOP = 2.0

	pauseHold      = 0 // DO_PAUSE_CONTINUE param1
	continueResume = 1
)

// MissionStatus is the execution progress reported to the dashboard.
type MissionStatus struct {
	Active          bool    `json:"active"`
	TotalWaypoints  int     `json:"total_waypoints"`
	CurrentWaypoint int     `json:"current_waypoint"`
	ProgressPercent float64 `json:"progress_percent"`
}

// StartMission begins executing the uploaded mission. Preconditions are
// checked up front and reported itemized; the mode sequence is
// GUIDED → AUTO with a MISSION_START trigger, and an AUTO switch that
// bounces into RTL is reported as the safety rejection it is.
func (c *Connection) StartMission() error {
	c.mu.Lock()
	plan := c.plan
	c.mu.Unlock()
	snap := c.state.Snapshot()

	var issues []string
	if plan == nil || plan.Len() == 0 {
		issues = append(issues, "no mission uploaded")
	}
	if !snap.Armed {
		issues = append(issues, "vehicle not armed")
	}
	if snap.GPSFixType < minFixType {
		issues = append(issues, fmt.Sprintf("GPS fix type %d below 3D fix", snap.GPSFixType))
	}
	if snap.HDOP > maxStartHDOP {
		issues = append(issues, fmt.Sprintf("HDOP %.2f above %.1f threshold", snap.HDOP, maxStartHDOP))
	}
	if snap.BatteryVoltage > 0 && snap.BatteryVoltage < minVoltsHard {
		issues = append(issues, fmt.Sprintf("battery voltage %.1fV below %.1fV floor",
			snap.BatteryVoltage, minVoltsHard))
	}
	if plan != nil && plan.Len() > 0 &&
		plan.Items[0].Latitude == 0 && plan.Items[0].Longitude == 0 {
		issues = append(issues, "home position unknown (mission was planned at 0,0)")
	}
	if len(issues) > 0 {
		return &PreconditionError{Op: "mission start", Issues: issues}
	}

	if c.Simulation {
		c.state.Update(func(t *Telemetry) { t.FlightMode = "AUTO" })
		c.setActive(true, 1)
		c.publishMission("started (simulated)")
		return nil
	}

	// Reset to the first real waypoint so a previously flown mission
	// does not resume from its last index.
	err := c.transport.Send(&common.MessageMissionSetCurrent{
		TargetSystem:    c.transport.TargetSystem(),
		TargetComponent: c.transport.TargetComponent(),
		Seq:             1,
	})
	if err != nil {
		return err
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

	if err := c.SetMode("AUTO"); err != nil {
		var unconfirmed *ModeUnconfirmedError
		if !errors.As(err, &unconfirmed) {
			return err
		}
		if unconfirmed.Current == "RTL" {
			return &RejectedError{
				Op: "mission start",
				Detail: "autopilot entered RTL instead of AUTO: safety rejection, " +
					"check GPS quality, failsafes, and home position",
			}
		}
		// Never left the old mode; fall back to the explicit trigger
		// and poll for the late switch.
		if err := c.startViaTrigger(plan); err != nil {
			return err
		}
	} else {
		// Some firmware sits in AUTO waiting for the trigger.
		if err := c.sendMissionStart(plan); err != nil {
			return err
		}
	}

	c.setActive(true, 1)
	c.publishMission("started")
	log.Printf("[drone %d] mission started: %d items", c.ID, plan.Len())
	return nil
}

// startViaTrigger sends MISSION_START after an unconfirmed AUTO switch
// and polls for the vehicle to end up in AUTO anyway.
func (c *Connection) startViaTrigger(plan *MissionPlan) error {
	if err := c.sendMissionStart(plan); err != nil {
		return err
	}
	deadline := time.Now().Add(c.timing.ModeVerify)
	for time.Now().Before(deadline) {
		switch c.state.Snapshot().FlightMode {
		case "AUTO":
			return nil
		case "RTL":
			return &RejectedError{
				Op: "mission start",
				Detail: "autopilot entered RTL instead of AUTO: safety rejection, " +
					"check GPS quality, failsafes, and home position",
			}
		}
		time.Sleep(c.timing.VerifyEvery)
	}
	return &VerificationError{
		Step:     "mission start",
		Expected: "AUTO",
		Got:      c.state.Snapshot().FlightMode,
	}
}

func (c *Connection) sendMissionStart(plan *MissionPlan) error {
	return c.sendCommand(common.MAV_CMD_MISSION_START,
		1, float32(plan.Len()-1), 0, 0, 0, 0, 0)
}

// PauseMission holds the vehicle in place without leaving AUTO, so a
// resume continues from the same mission index.
func (c *Connection) PauseMission() error {
	if c.Simulation {
		c.state.Update(func(t *Telemetry) { t.FlightMode = "LOITER" })
		c.setActive(false, c.CurrentSeq())
		c.publishMission("paused (simulated)")
		return nil
	}
	if err := c.pauseContinue("mission pause", pauseHold); err != nil {
		return err
	}
	c.setActive(false, c.CurrentSeq())
	c.publishMission("paused")
	return nil
}

// ResumeMission continues a paused mission from its current index.
func (c *Connection) ResumeMission() error {
	if c.Simulation {
		c.state.Update(func(t *Telemetry) { t.FlightMode = "AUTO" })
		c.setActive(true, c.CurrentSeq())
		c.publishMission("resumed (simulated)")
		return nil
	}
	if err := c.pauseContinue("mission resume", continueResume); err != nil {
		return err
	}
	c.setActive(true, c.CurrentSeq())
	c.publishMission("resumed")
	return nil
}

func (c *Connection) pauseContinue(op string, direction float32) error {
	sent := time.Now()
	err := c.sendCommand(common.MAV_CMD_DO_PAUSE_CONTINUE, direction, 0, 0, 0, 0, 0, 0)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(c.timing.AckWait)
	for time.Now().Before(deadline) {
		if result, ok := c.state.AckSince(common.MAV_CMD_DO_PAUSE_CONTINUE, sent); ok {
			if result == common.MAV_RESULT_ACCEPTED {
				return nil
			}
			return &RejectedError{Op: op, Code: int(result)}
		}
		time.Sleep(c.timing.VerifyEvery)
	}
	return &ProtocolTimeoutError{Step: op + " ack", Budget: c.timing.AckWait}
}

// StopMission aborts the mission: RTL, then best-effort clear of the
// stored mission so a later arm cannot resume it.
func (c *Connection) StopMission() error {
	if c.Simulation {
		c.state.Update(func(t *Telemetry) { t.FlightMode = "RTL" })
	} else {
		if err := c.ReturnToLaunch(); err != nil {
			return err
		}
		err := c.transport.Send(&common.MessageMissionClearAll{
			TargetSystem:    c.transport.TargetSystem(),
			TargetComponent: c.transport.TargetComponent(),
			MissionType:     common.MAV_MISSION_TYPE_MISSION,
		})
		if err != nil && mavlink.IsFatal(err) {
			return err
		}
	}

	c.mu.Lock()
	c.plan = nil
	c.missionActive = false
	c.currentSeq = 0
	c.mu.Unlock()
	c.publishMission("stopped")
	return nil
}

// MissionProgress reports execution progress. On a live link it nudges
// the autopilot for a fresh MISSION_CURRENT, then answers from the
// snapshot either way so the call always returns promptly.
func (c *Connection) MissionProgress() MissionStatus {
	c.mu.Lock()
	plan := c.plan
	active := c.missionActive
	current := c.currentSeq
	c.mu.Unlock()

	if plan == nil || plan.Len() == 0 {
		return MissionStatus{}
	}

	if !c.Simulation && c.Connected() && !c.uploading.Load() {
		nudged := time.Now()
		err := c.sendCommand(common.MAV_CMD_REQUEST_MESSAGE,
			float32((&common.MessageMissionCurrent{}).GetID()), 0, 0, 0, 0, 0, 0)
		if err == nil {
			deadline := time.Now().Add(c.timing.StatusWait)
			for time.Now().Before(deadline) {
				if _, at, ok := c.state.MissionCurrent(); ok && !at.Before(nudged) {
					break
				}
				time.Sleep(c.timing.VerifyEvery)
			}
		}
	}
	if seq, _, ok := c.state.MissionCurrent(); ok {
		current = seq
		c.mu.Lock()
		c.currentSeq = seq
		c.mu.Unlock()
	}

	total := plan.Len()
	progress := float64(current) / float64(total) * 100
	if progress > 100 {
		progress = 100
	}
	return MissionStatus{
		Active:          active,
		TotalWaypoints:  total,
		CurrentWaypoint: current,
		ProgressPercent: progress,
	}
}

// CurrentSeq returns the last known mission index.
func (c *Connection) CurrentSeq() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSeq
}

func (c *Connection) setActive(active bool, seq int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missionActive = active
	c.currentSeq = seq
}
