package drone

import (
	"math"
	"time"

	"github.com/RanaPoddar/gcs-service/internal/notify"
)

const (
	// Simulated cruise speed, in degrees of latitude per second.
	// Roughly 2.5 m/s near the equator.
	simStepDeg = 0.000025

	simArriveDeg = 0.00001 // waypoint arrival threshold

	simDrainPerSec = 0.0005 // volts per second while armed
)

// seedSimulation initializes the snapshot with a plausible parked
// vehicle so the dashboard has data before any command runs.
func (c *Connection) seedSimulation() {
	c.state.Update(func(t *Telemetry) {
		t.FlightMode = "STABILIZE"
		t.Latitude = defaultSimLat
		t.Longitude = defaultSimLon
		t.BatteryVoltage = defaultSimVoltage
		t.BatteryRemaining = 100
		t.GPSFixType = 3
		t.SatellitesVisible = 12
		t.HDOP = 0.9
		t.Heading = 90
		t.Timestamp = time.Now()
	})
}

// simLoop plays back synthetic telemetry: battery drain while armed and
// straight-line waypoint following while a mission runs.
func (c *Connection) simLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.timing.SimTick)
	defer ticker.Stop()

	for c.running.Load() {
		<-ticker.C
		step := c.timing.SimTick.Seconds()

		c.state.Update(func(t *Telemetry) {
			if t.Armed && t.BatteryVoltage > 9.0 {
				t.BatteryVoltage -= simDrainPerSec * step
			}
			t.Timestamp = time.Now()
		})

		c.simFlyMission(step)

		c.sink.Publish(notify.Event{
			Kind:    notify.KindTelemetry,
			DroneID: c.ID,
			Payload: c.state.Snapshot(),
			Time:    time.Now(),
		})
	}
}

// simFlyMission advances the simulated vehicle toward the current
// mission item while a mission is active.
func (c *Connection) simFlyMission(elapsed float64) {
	c.mu.Lock()
	plan := c.plan
	active := c.missionActive
	seq := c.currentSeq
	c.mu.Unlock()
	if !active || plan == nil || seq >= plan.Len() {
		return
	}

	target := plan.Items[seq]
	snap := c.state.Snapshot()
	dLat := target.Latitude - snap.Latitude
	dLon := target.Longitude - snap.Longitude
	dist := math.Hypot(dLat, dLon)

	if dist < simArriveDeg || target.Latitude == 0 && target.Longitude == 0 {
		next := seq + 1
		if next >= plan.Len() {
			// Mission complete: loiter where we are.
			c.state.Update(func(t *Telemetry) { t.FlightMode = "LOITER" })
			c.setActive(false, plan.Len()-1)
			c.state.RecordMissionCurrent(plan.Len() - 1)
			c.publishMission("completed (simulated)")
			return
		}
		c.setActive(true, next)
		c.state.RecordMissionCurrent(next)
		return
	}

	stepDist := simStepDeg * elapsed
	if stepDist > dist {
		stepDist = dist
	}
	c.state.Update(func(t *Telemetry) {
		t.Latitude += dLat / dist * stepDist
		t.Longitude += dLon / dist * stepDist
		t.RelativeAltitude = target.Altitude
		t.Heading = math.Mod(math.Atan2(dLon, dLat)*radToDeg+360, 360)
		t.Groundspeed = 2.5 // nominal cruise
	})
}
