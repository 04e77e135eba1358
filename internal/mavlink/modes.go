package mavlink

import (
	"fmt"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
)

// ArduCopter custom-mode numbers. Mirrors pymavlink's ArduCopter mode
// mapping; only these names are accepted by the mode-set command.
var copterModes = map[string]uint32{
	"STABILIZE":    0,
	"ACRO":         1,
	"ALT_HOLD":     2,
	"AUTO":         3,
	"GUIDED":       4,
	"LOITER":       5,
	"RTL":          6,
	"CIRCLE":       7,
	"LAND":         9,
	"DRIFT":        11,
	"SPORT":        13,
	"FLIP":         14,
	"AUTOTUNE":     15,
	"POSHOLD":      16,
	"BRAKE":        17,
	"THROW":        18,
	"AVOID_ADSB":   19,
	"GUIDED_NOGPS": 20,
	"SMART_RTL":    21,
}

var copterModeNames = func() map[uint32]string {
	names := make(map[uint32]string, len(copterModes))
	for name, id := range copterModes {
		names[id] = name
	}
	return names
}()

// ModeID resolves an ArduCopter flight-mode name to its custom-mode
// number.
func ModeID(name string) (uint32, bool) {
	id, ok := copterModes[name]
	return id, ok
}

// ModeName returns the flight-mode name for a custom-mode number, or
// "MODE(n)" for numbers outside the table.
func ModeName(customMode uint32) string {
	if name, ok := copterModeNames[customMode]; ok {
		return name
	}
	return fmt.Sprintf("MODE(%d)", customMode)
}

// HeartbeatMode decodes the flight-mode string from a heartbeat.
func HeartbeatMode(hb *common.MessageHeartbeat) string {
	if hb.BaseMode&common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED == 0 {
		return "UNKNOWN"
	}
	return ModeName(hb.CustomMode)
}

// HeartbeatArmed decodes the armed bit from a heartbeat.
func HeartbeatArmed(hb *common.MessageHeartbeat) bool {
	return hb.BaseMode&common.MAV_MODE_FLAG_SAFETY_ARMED != 0
}
