// Package drone manages one MAVLink-connected vehicle: its telemetry
// state, the ingestion loop, the command executor, and the mission
// transfer and execution protocols.
package drone

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotConnected is returned by operations on a vehicle without a
	// live link.
	ErrNotConnected = errors.New("drone: not connected")

	// ErrAlreadyConnected is returned by Connect on a live connection.
	ErrAlreadyConnected = errors.New("drone: already connected")

	// ErrUploadBusy rejects a second mission upload while one is in
	// flight; concurrent uploads to the same vehicle are undefined.
	ErrUploadBusy = errors.New("drone: mission upload already in progress")
)

// PreconditionError reports a caller-visible validation failure before
// any command was sent. Issues are itemized so the operator can act on
// each one.
type PreconditionError struct {
	Op     string
	Issues []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s blocked: %s", e.Op, strings.Join(e.Issues, "; "))
}

// RejectedError reports that the autopilot explicitly denied a request.
// Code carries the raw MAVLink result so rejection reasons are never
// swallowed.
type RejectedError struct {
	Op     string
	Code   int
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s rejected: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("%s rejected by autopilot (result code %d)", e.Op, e.Code)
}

// ProtocolTimeoutError reports that a protocol step exhausted its
// budget without a conclusive answer.
type ProtocolTimeoutError struct {
	Step   string
	Budget time.Duration
}

func (e *ProtocolTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Step, e.Budget)
}

// VerificationError reports that an operation appeared accepted but the
// readback disagrees. This is always a failure, never a warning.
type VerificationError struct {
	Step     string
	Expected string
	Got      string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s verification failed: expected %s, got %s", e.Step, e.Expected, e.Got)
}

// ModeUnconfirmedError is the soft failure of a mode switch: the
// command was sent but heartbeat polling never confirmed the new mode.
// It may still take effect late. Current distinguishes "never left the
// old mode" from a safety bounce into RTL.
type ModeUnconfirmedError struct {
	Mode    string
	Current string
}

func (e *ModeUnconfirmedError) Error() string {
	return fmt.Sprintf("mode %s not confirmed (vehicle reports %s)", e.Mode, e.Current)
}

// ArmFailedError reports arm verification exhaustion with the pre-arm
// diagnostics and the last status texts; autopilots surface rejection
// reasons only through status text.
type ArmFailedError struct {
	Diagnostics string
	Issues      []string
	StatusTexts []StatusText
}

func (e *ArmFailedError) Error() string {
	msg := "arm failed: " + e.Diagnostics
	if len(e.Issues) > 0 {
		msg += "; issues: " + strings.Join(e.Issues, "; ")
	}
	return msg
}
