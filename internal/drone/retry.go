package drone

import (
	"errors"
	"time"

	"github.com/RanaPoddar/gcs-service/internal/mavlink"
)

var errNotVerified = errors.New("drone: verification did not confirm")

// retrier runs an action a bounded number of times and, after each
// attempt, polls a verification predicate against the telemetry
// snapshot. Fatal transport errors abort immediately; everything else
// is retried until the attempts run out.
type retrier struct {
	attempts     int
	pause        time.Duration // between attempts
	verifyWindow time.Duration // polling window after each attempt
	verifyEvery  time.Duration // polling interval within the window
}

// do runs action, then polls verify until it returns true or the window
// closes. A nil verify means the send itself is success. The returned
// error is the last action error, or errNotVerified when every attempt
// sent cleanly but verification never confirmed.
func (r retrier) do(action func() error, verify func() bool) error {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(r.pause)
		}
		if err := action(); err != nil {
			if mavlink.IsFatal(err) {
				return err
			}
			lastErr = err
			continue
		}
		if verify == nil {
			return nil
		}
		deadline := time.Now().Add(r.verifyWindow)
		for {
			if verify() {
				return nil
			}
			if !time.Now().Before(deadline) {
				break
			}
			time.Sleep(r.verifyEvery)
		}
		lastErr = errNotVerified
	}
	if lastErr == nil {
		lastErr = errNotVerified
	}
	return lastErr
}
