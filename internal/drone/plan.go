package drone

import (
	"strings"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
)

// DefaultSurveyAltitude is used when waypoints carry no altitude.
const DefaultSurveyAltitude = 15.0

// Waypoint is one caller-supplied survey point.
type Waypoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
	Command   string  `json:"command,omitempty"` // WAYPOINT (default), TAKEOFF, LAND, LOITER
}

// PlanItem is one mission slot as sent on the wire.
type PlanItem struct {
	Seq       int
	Command   common.MAV_CMD
	Frame     common.MAV_FRAME
	Latitude  float64
	Longitude float64
	Altitude  float64
	Param1    float32
	Param2    float32
	Param3    float32
	Param4    float32
}

// MissionPlan is the full synthesized item list for one upload.
type MissionPlan struct {
	Items []PlanItem
}

// Len returns the item count, home slot included.
func (p *MissionPlan) Len() int { return len(p.Items) }

// SynthesizeMission builds the complete mission from survey waypoints:
// slot 0 holds the home position (current location, absolute altitude),
// slot 1 a TAKEOFF at the home coordinates and survey altitude, then
// the waypoints, then an RTL. ArduPilot treats slot 0 as home and never
// flies it.
func SynthesizeMission(home Telemetry, waypoints []Waypoint) *MissionPlan {
	surveyAlt := waypoints[0].Altitude
	if surveyAlt <= 0 {
		surveyAlt = DefaultSurveyAltitude
	}

	items := make([]PlanItem, 0, len(waypoints)+3)
	items = append(items, PlanItem{
		Command:   common.MAV_CMD_NAV_WAYPOINT,
		Frame:     common.MAV_FRAME_GLOBAL,
		Latitude:  home.Latitude,
		Longitude: home.Longitude,
		Altitude:  home.Altitude,
	})
	items = append(items, PlanItem{
		Command:   common.MAV_CMD_NAV_TAKEOFF,
		Frame:     common.MAV_FRAME_GLOBAL_RELATIVE_ALT,
		Latitude:  home.Latitude,
		Longitude: home.Longitude,
		Altitude:  surveyAlt,
	})
	for _, wp := range waypoints {
		alt := wp.Altitude
		if alt <= 0 {
			alt = surveyAlt
		}
		items = append(items, PlanItem{
			Command:   commandFromName(wp.Command),
			Frame:     common.MAV_FRAME_GLOBAL_RELATIVE_ALT,
			Latitude:  wp.Latitude,
			Longitude: wp.Longitude,
			Altitude:  alt,
		})
	}
	items = append(items, PlanItem{
		Command: common.MAV_CMD_NAV_RETURN_TO_LAUNCH,
		Frame:   common.MAV_FRAME_GLOBAL_RELATIVE_ALT,
	})

	for i := range items {
		items[i].Seq = i
	}
	return &MissionPlan{Items: items}
}

// commandFromName maps the dashboard's loose command names onto mission
// commands; anything unrecognized is a plain waypoint.
func commandFromName(name string) common.MAV_CMD {
	switch {
	case strings.Contains(strings.ToUpper(name), "TAKEOFF"):
		return common.MAV_CMD_NAV_TAKEOFF
	case strings.Contains(strings.ToUpper(name), "LAND"):
		return common.MAV_CMD_NAV_LAND
	case strings.Contains(strings.ToUpper(name), "LOITER"):
		return common.MAV_CMD_NAV_LOITER_UNLIM
	default:
		return common.MAV_CMD_NAV_WAYPOINT
	}
}

// toItemInt encodes the slot as the scaled-integer mission item.
func (it PlanItem) toItemInt(sys, comp uint8) *common.MessageMissionItemInt {
	return &common.MessageMissionItemInt{
		TargetSystem:    sys,
		TargetComponent: comp,
		Seq:             uint16(it.Seq),
		Frame:           it.Frame,
		Command:         it.Command,
		Current:         0,
		Autocontinue:    1,
		Param1:          it.Param1,
		Param2:          it.Param2,
		Param3:          it.Param3,
		Param4:          it.Param4,
		X:               int32(it.Latitude * 1e7),
		Y:               int32(it.Longitude * 1e7),
		Z:               float32(it.Altitude),
		MissionType:     common.MAV_MISSION_TYPE_MISSION,
	}
}

// toItem encodes the slot as the legacy float mission item, for
// autopilots that request the old encoding.
func (it PlanItem) toItem(sys, comp uint8) *common.MessageMissionItem {
	return &common.MessageMissionItem{
		TargetSystem:    sys,
		TargetComponent: comp,
		Seq:             uint16(it.Seq),
		Frame:           it.Frame,
		Command:         it.Command,
		Current:         0,
		Autocontinue:    1,
		Param1:          it.Param1,
		Param2:          it.Param2,
		Param3:          it.Param3,
		Param4:          it.Param4,
		X:               float32(it.Latitude),
		Y:               float32(it.Longitude),
		Z:               float32(it.Altitude),
		MissionType:     common.MAV_MISSION_TYPE_MISSION,
	}
}
