package drone

import (
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
)

const statusTextCap = 20

// Telemetry is the flattened snapshot of everything the dashboard
// polls. Field names match the HTTP payload.
type Telemetry struct {
	Armed             bool      `json:"armed"`
	FlightMode        string    `json:"flight_mode"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Altitude          float64   `json:"altitude"`
	RelativeAltitude  float64   `json:"relative_altitude"`
	Heading           float64   `json:"heading"`
	Roll              float64   `json:"roll"`
	Pitch             float64   `json:"pitch"`
	Yaw               float64   `json:"yaw"`
	Groundspeed       float64   `json:"groundspeed"`
	Airspeed          float64   `json:"airspeed"`
	ClimbRate         float64   `json:"climb_rate"`
	Throttle          int       `json:"throttle"`
	BatteryVoltage    float64   `json:"battery_voltage"`
	BatteryCurrent    float64   `json:"battery_current"`
	BatteryRemaining  int       `json:"battery_remaining"`
	GPSFixType        int       `json:"gps_fix_type"`
	SatellitesVisible int       `json:"satellites_visible"`
	HDOP              float64   `json:"hdop"`
	Timestamp         time.Time `json:"timestamp"`
}

// StatusText is one STATUSTEXT entry from the autopilot.
type StatusText struct {
	Severity int       `json:"severity"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}

type commandAck struct {
	result common.MAV_RESULT
	at     time.Time
}

// State is the mutex-guarded vehicle snapshot written by the ingestion
// loop and read by the HTTP handlers and the command executor. Command
// ACKs and the mission-current sequence are recorded here too, so
// command verification polls the snapshot instead of competing with the
// ingestion loop for the transport.
type State struct {
	mu         sync.RWMutex
	telemetry  Telemetry
	statusLog  []StatusText
	acks       map[common.MAV_CMD]commandAck
	missionSeq int
	missionAt  time.Time
}

// NewState returns a snapshot with the pre-telemetry defaults: unknown
// mode and a worst-case HDOP so mission preconditions fail closed until
// real GPS data arrives.
func NewState() *State {
	return &State{
		telemetry: Telemetry{
			FlightMode: "UNKNOWN",
			HDOP:       99.99,
		},
		acks:       make(map[common.MAV_CMD]commandAck),
		missionSeq: -1,
	}
}

// Snapshot returns a copy of the current telemetry.
func (s *State) Snapshot() Telemetry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.telemetry
}

// Update applies fn to the telemetry under the write lock.
func (s *State) Update(fn func(*Telemetry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.telemetry)
}

// AppendStatusText records a status text, keeping the most recent
// entries only.
func (s *State) AppendStatusText(st StatusText) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusLog = append(s.statusLog, st)
	if len(s.statusLog) > statusTextCap {
		s.statusLog = s.statusLog[len(s.statusLog)-statusTextCap:]
	}
}

// StatusLog returns a copy of the retained status texts, oldest first.
func (s *State) StatusLog() []StatusText {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StatusText, len(s.statusLog))
	copy(out, s.statusLog)
	return out
}

// LastStatusTexts returns up to n of the most recent status texts.
func (s *State) LastStatusTexts(n int) []StatusText {
	log := s.StatusLog()
	if len(log) > n {
		log = log[len(log)-n:]
	}
	return log
}

// RecordAck stores a COMMAND_ACK for later verification.
func (s *State) RecordAck(cmd common.MAV_CMD, result common.MAV_RESULT) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acks[cmd] = commandAck{result: result, at: time.Now()}
}

// AckSince reports the ACK for cmd if one arrived at or after since.
func (s *State) AckSince(cmd common.MAV_CMD, since time.Time) (common.MAV_RESULT, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ack, ok := s.acks[cmd]
	if !ok || ack.at.Before(since) {
		return 0, false
	}
	return ack.result, true
}

// RecordMissionCurrent stores the latest MISSION_CURRENT sequence.
func (s *State) RecordMissionCurrent(seq int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missionSeq = seq
	s.missionAt = time.Now()
}

// MissionCurrent returns the last reported mission sequence and when it
// arrived; ok is false if none was ever seen.
func (s *State) MissionCurrent() (seq int, at time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.missionSeq < 0 {
		return 0, time.Time{}, false
	}
	return s.missionSeq, s.missionAt, true
}
