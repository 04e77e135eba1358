package drone

import "time"

// Timing collects every delay and budget in the connection, command,
// and mission protocols. The defaults are tuned for 57600-baud
// telemetry radios; tests shrink them to keep the protocol state
// machines fast.
type Timing struct {
	HeartbeatWait time.Duration // initial heartbeat wait on connect
	StreamGap     time.Duration // between data-stream setup messages
	IngestPoll    time.Duration // per-iteration receive timeout in ingestion
	UploadBackoff time.Duration // ingestion sleep while an upload holds the link
	HandoffWait   time.Duration // upload waits this long after raising the flag

	CommandPause  time.Duration // between command retry attempts
	AckWait       time.Duration // COMMAND_ACK polling window
	ArmVerify     time.Duration // per-attempt window polling the armed bit
	ModeVerify    time.Duration // per-attempt window polling the mode
	ModeSettle    time.Duration // after a mode switch, before the next command
	ModeResendGap time.Duration // between the doubled SET_MODE sends
	VerifyEvery   time.Duration // snapshot polling interval

	ClearAckWait  time.Duration // MISSION_ACK wait per CLEAR_ALL attempt
	CountReadback time.Duration // MISSION_COUNT wait confirming the clear
	DetectWindow  time.Duration // upload sub-protocol detection window
	RequestWait   time.Duration // per-iteration wait in request-driven transfer
	InterItem     time.Duration // gap between send-all items
	FinalAckWait  time.Duration // terminal MISSION_ACK window
	EEPROMSettle  time.Duration // before the verification readback
	ReadbackWait  time.Duration // per verification readback attempt
	ReadbackPause time.Duration // between readback attempts
	ItemBudget    time.Duration // per-item share of the overall upload deadline
	UploadFloor   time.Duration // minimum overall upload deadline

	StatusWait time.Duration // MISSION_CURRENT wait in mission status
	SimTick    time.Duration // simulated telemetry update interval
}

// DefaultTiming returns the production values.
func DefaultTiming() Timing {
	return Timing{
		HeartbeatWait: 10 * time.Second,
		StreamGap:     50 * time.Millisecond,
		IngestPoll:    time.Second,
		UploadBackoff: 100 * time.Millisecond,
		// Must exceed IngestPoll: the ingestion loop can sit in one last
		// receive for a full poll interval after the flag is raised.
		HandoffWait: 1500 * time.Millisecond,

		CommandPause:  time.Second,
		AckWait:       3 * time.Second,
		ArmVerify:     time.Second,
		ModeVerify:    time.Second,
		ModeSettle:    time.Second,
		ModeResendGap: 100 * time.Millisecond,
		VerifyEvery:   100 * time.Millisecond,

		ClearAckWait:  1500 * time.Millisecond,
		CountReadback: time.Second,
		DetectWindow:  3 * time.Second,
		RequestWait:   time.Second,
		InterItem:     50 * time.Millisecond,
		FinalAckWait:  5 * time.Second,
		EEPROMSettle:  2 * time.Second,
		ReadbackWait:  time.Second,
		ReadbackPause: time.Second,
		ItemBudget:    3 * time.Second,
		UploadFloor:   30 * time.Second,

		StatusWait: 500 * time.Millisecond,
		SimTick:    time.Second,
	}
}
