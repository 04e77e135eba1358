package drone

import (
	"fmt"
	"log"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/RanaPoddar/gcs-service/internal/mavlink"
)

const clearAttempts = 3

// uploadSession tracks one run of the mission transfer protocol.
type uploadSession struct {
	plan  *MissionPlan
	sent  map[int]bool // indices delivered at least once
	isInt map[int]bool // last encoding used per index
}

// UploadMission synthesizes the full mission from the waypoints and
// runs the transfer protocol. On success the plan is retained for
// mission execution. Concurrent uploads to the same vehicle are
// rejected outright.
func (c *Connection) UploadMission(waypoints []Waypoint) (*MissionPlan, error) {
	if len(waypoints) == 0 {
		return nil, &PreconditionError{Op: "mission upload", Issues: []string{"no waypoints provided"}}
	}
	if !c.Connected() {
		return nil, ErrNotConnected
	}

	plan := SynthesizeMission(c.state.Snapshot(), waypoints)

	if c.Simulation {
		c.setPlan(plan)
		c.publishMission(fmt.Sprintf("uploaded %d items (simulated)", plan.Len()))
		return plan, nil
	}

	if !c.uploading.CompareAndSwap(false, true) {
		return nil, ErrUploadBusy
	}
	defer c.uploading.Store(false)

	if err := c.runUpload(plan); err != nil {
		log.Printf("[drone %d] mission upload failed: %v", c.ID, err)
		return nil, err
	}
	c.setPlan(plan)
	c.publishMission(fmt.Sprintf("uploaded %d items", plan.Len()))
	log.Printf("[drone %d] mission upload complete: %d items", c.ID, plan.Len())
	return plan, nil
}

// Plan returns the last successfully uploaded mission, or nil.
func (c *Connection) Plan() *MissionPlan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan
}

func (c *Connection) setPlan(plan *MissionPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plan = plan
	c.missionActive = false
	c.currentSeq = 0
}

// runUpload is the transfer state machine: take over the link, clear
// the stored mission with confirmation, announce the count, serve
// whichever sub-protocol the autopilot speaks, and verify the stored
// result by reading an item back.
func (c *Connection) runUpload(plan *MissionPlan) error {
	// The ingestion loop polls the uploading flag at a bounded interval;
	// after this wait the link is ours.
	time.Sleep(c.timing.HandoffWait)
	c.transport.Drain()

	if err := c.clearMission(); err != nil {
		return err
	}

	if err := c.transport.Send(&common.MessageMissionCount{
		TargetSystem:    c.transport.TargetSystem(),
		TargetComponent: c.transport.TargetComponent(),
		Count:           uint16(plan.Len()),
		MissionType:     common.MAV_MISSION_TYPE_MISSION,
	}); err != nil {
		return err
	}

	sess := &uploadSession{
		plan:  plan,
		sent:  make(map[int]bool),
		isInt: make(map[int]bool),
	}
	finalAck, err := c.transferItems(sess)
	if err != nil {
		return err
	}
	if finalAck.Type != common.MAV_MISSION_ACCEPTED {
		return &RejectedError{
			Op:     "mission upload",
			Code:   int(finalAck.Type),
			Detail: fmt.Sprintf("autopilot returned mission result %d", finalAck.Type),
		}
	}
	return c.verifyStoredMission(plan)
}

// clearMission clears the stored mission and confirms both the ACK and,
// after it, a zero item count. An unconfirmed clear leaves the
// autopilot's mission state unknown, which is unsafe to build on.
func (c *Connection) clearMission() error {
	acked := false
	denied := false
	var deniedResult common.MAV_MISSION_RESULT
	for attempt := 0; attempt < clearAttempts && !acked; attempt++ {
		if attempt > 0 {
			time.Sleep(c.timing.CommandPause)
		}
		err := c.transport.Send(&common.MessageMissionClearAll{
			TargetSystem:    c.transport.TargetSystem(),
			TargetComponent: c.transport.TargetComponent(),
			MissionType:     common.MAV_MISSION_TYPE_MISSION,
		})
		if err != nil {
			return err
		}
		msg, err := c.transport.Receive(c.timing.ClearAckWait, matchType[*common.MessageMissionAck])
		if err != nil {
			if mavlink.IsFatal(err) {
				return err
			}
			continue
		}
		result := msg.(*common.MessageMissionAck).Type
		if result == common.MAV_MISSION_ACCEPTED {
			acked = true
		} else {
			denied = true
			deniedResult = result
		}
	}
	if !acked {
		// An explicit denial carries a reason; report it instead of
		// folding it into a timeout.
		if denied {
			return &RejectedError{Op: "mission clear", Code: int(deniedResult)}
		}
		return &ProtocolTimeoutError{
			Step:   "mission clear",
			Budget: time.Duration(clearAttempts) * c.timing.ClearAckWait,
		}
	}
	return c.confirmMissionEmpty()
}

// confirmMissionEmpty reads the item count back after a clear; some
// firmware ACKs before the erase lands.
func (c *Connection) confirmMissionEmpty() error {
	var lastCount = -1
	for attempt := 0; attempt < clearAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(c.timing.ReadbackPause)
		}
		err := c.transport.Send(&common.MessageMissionRequestList{
			TargetSystem:    c.transport.TargetSystem(),
			TargetComponent: c.transport.TargetComponent(),
			MissionType:     common.MAV_MISSION_TYPE_MISSION,
		})
		if err != nil {
			return err
		}
		msg, err := c.transport.Receive(c.timing.CountReadback, matchType[*common.MessageMissionCount])
		if err != nil {
			if mavlink.IsFatal(err) {
				return err
			}
			continue
		}
		lastCount = int(msg.(*common.MessageMissionCount).Count)
		if lastCount == 0 {
			// Close the (empty) download transaction.
			c.sendMissionAck(common.MAV_MISSION_ACCEPTED)
			return nil
		}
	}
	got := "no MISSION_COUNT reply"
	if lastCount >= 0 {
		got = fmt.Sprintf("%d items still stored", lastCount)
	}
	return &VerificationError{Step: "mission clear readback", Expected: "0 items", Got: got}
}

// transferItems detects which sub-protocol the autopilot speaks and
// runs it to the terminal MISSION_ACK.
//
// Request-driven: the autopilot answers MISSION_COUNT with per-index
// MISSION_REQUEST(_INT) messages; each is answered with exactly the
// requested index, re-requests included, and the autopilot ends the
// transfer with the ACK.
//
// Send-all: nothing is requested (or a premature ACK arrives), so every
// item is pushed in order with a small gap and the terminal ACK is
// awaited afterwards.
func (c *Connection) transferItems(sess *uploadSession) (*common.MessageMissionAck, error) {
	deadline := time.Now().Add(c.timing.DetectWindow)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		msg, err := c.transport.Receive(remaining, matchMissionTraffic)
		if err != nil {
			if mavlink.IsFatal(err) {
				return nil, err
			}
			break
		}
		switch m := msg.(type) {
		case *common.MessageMissionRequest:
			log.Printf("[drone %d] autopilot speaks request-driven transfer", c.ID)
			return c.runRequestDriven(sess, int(m.Seq), false)
		case *common.MessageMissionRequestInt:
			log.Printf("[drone %d] autopilot speaks request-driven transfer (int)", c.ID)
			return c.runRequestDriven(sess, int(m.Seq), true)
		case *common.MessageMissionAck:
			// ACK without requesting anything: it will not pull items.
			log.Printf("[drone %d] premature mission ack (%d), falling back to send-all", c.ID, m.Type)
			return c.runSendAll(sess)
		}
	}
	log.Printf("[drone %d] no reaction to mission count, falling back to send-all", c.ID)
	return c.runSendAll(sess)
}

// runRequestDriven answers per-index requests until the terminal ACK.
// Requests are honored exactly as asked: out-of-order, repeated, and
// non-zero first indices included. Out-of-range indices are ignored.
func (c *Connection) runRequestDriven(sess *uploadSession, firstSeq int, useInt bool) (*common.MessageMissionAck, error) {
	overall := time.Now().Add(c.uploadBudget(sess.plan.Len()))

	if err := c.serveItem(sess, firstSeq, useInt); err != nil {
		return nil, err
	}
	for time.Now().Before(overall) {
		msg, err := c.transport.Receive(c.timing.RequestWait, matchMissionTraffic)
		if err != nil {
			if mavlink.IsFatal(err) {
				return nil, err
			}
			continue
		}
		switch m := msg.(type) {
		case *common.MessageMissionRequest:
			if err := c.serveItem(sess, int(m.Seq), false); err != nil {
				return nil, err
			}
		case *common.MessageMissionRequestInt:
			if err := c.serveItem(sess, int(m.Seq), true); err != nil {
				return nil, err
			}
		case *common.MessageMissionAck:
			return m, nil
		}
	}
	return nil, &ProtocolTimeoutError{
		Step:   fmt.Sprintf("request-driven transfer (%d/%d items served)", len(sess.sent), sess.plan.Len()),
		Budget: c.uploadBudget(sess.plan.Len()),
	}
}

// serveItem sends one mission item in the requested encoding. Resends
// are idempotent; the item content for an index never changes within a
// session.
func (c *Connection) serveItem(sess *uploadSession, seq int, useInt bool) error {
	if seq < 0 || seq >= sess.plan.Len() {
		log.Printf("[drone %d] ignoring request for out-of-range item %d", c.ID, seq)
		return nil
	}
	if sess.sent[seq] {
		log.Printf("[drone %d] re-sending mission item %d", c.ID, seq)
	}
	it := sess.plan.Items[seq]
	var msg message.Message
	if useInt {
		msg = it.toItemInt(c.transport.TargetSystem(), c.transport.TargetComponent())
	} else {
		msg = it.toItem(c.transport.TargetSystem(), c.transport.TargetComponent())
	}
	if err := c.transport.Send(msg); err != nil {
		return err
	}
	sess.sent[seq] = true
	sess.isInt[seq] = useInt
	return nil
}

// runSendAll pushes every item in order, paced so a radio link keeps
// up, then waits for the terminal ACK.
func (c *Connection) runSendAll(sess *uploadSession) (*common.MessageMissionAck, error) {
	for seq := range sess.plan.Items {
		if err := c.serveItem(sess, seq, true); err != nil {
			return nil, err
		}
		time.Sleep(c.timing.InterItem)
	}
	msg, err := c.transport.Receive(c.timing.FinalAckWait, matchType[*common.MessageMissionAck])
	if err != nil {
		if mavlink.IsFatal(err) {
			return nil, err
		}
		return nil, &ProtocolTimeoutError{Step: "final mission ack", Budget: c.timing.FinalAckWait}
	}
	return msg.(*common.MessageMissionAck), nil
}

// verifyStoredMission reads the TAKEOFF slot back and checks the stored
// command matches the upload. The terminal ACK alone does not prove the
// non-volatile write finished; slow EEPROMs need the settle delay and a
// few read attempts.
func (c *Connection) verifyStoredMission(plan *MissionPlan) error {
	time.Sleep(c.timing.EEPROMSettle)
	want := plan.Items[1]

	var lastGot string
	for attempt := 0; attempt < clearAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(c.timing.ReadbackPause)
		}
		err := c.transport.Send(&common.MessageMissionRequestInt{
			TargetSystem:    c.transport.TargetSystem(),
			TargetComponent: c.transport.TargetComponent(),
			Seq:             uint16(want.Seq),
			MissionType:     common.MAV_MISSION_TYPE_MISSION,
		})
		if err != nil {
			return err
		}
		msg, err := c.transport.Receive(c.timing.ReadbackWait, matchMissionItemReply)
		if err != nil {
			if mavlink.IsFatal(err) {
				return err
			}
			continue
		}
		seq, cmd := missionItemReply(msg)
		if seq != want.Seq {
			continue
		}
		c.sendMissionAck(common.MAV_MISSION_ACCEPTED)
		if cmd == want.Command {
			return nil
		}
		// Possibly still settling; retry before declaring a mismatch.
		lastGot = fmt.Sprintf("command %d", cmd)
	}
	if lastGot == "" {
		lastGot = "no item readback"
	}
	return &VerificationError{
		Step:     "mission readback",
		Expected: fmt.Sprintf("command %d at item %d", want.Command, want.Seq),
		Got:      lastGot,
	}
}

func (c *Connection) sendMissionAck(result common.MAV_MISSION_RESULT) {
	err := c.transport.Send(&common.MessageMissionAck{
		TargetSystem:    c.transport.TargetSystem(),
		TargetComponent: c.transport.TargetComponent(),
		Type:            result,
		MissionType:     common.MAV_MISSION_TYPE_MISSION,
	})
	if err != nil {
		log.Printf("[drone %d] send mission ack: %v", c.ID, err)
	}
}

// uploadBudget is the overall transfer deadline, scaled to the item
// count with a floor for small missions on slow links.
func (c *Connection) uploadBudget(items int) time.Duration {
	budget := time.Duration(items) * c.timing.ItemBudget
	if budget < c.timing.UploadFloor {
		budget = c.timing.UploadFloor
	}
	return budget
}

// matchType matches one concrete message type.
func matchType[T message.Message](msg message.Message) bool {
	_, ok := msg.(T)
	return ok
}

func matchMissionTraffic(msg message.Message) bool {
	switch msg.(type) {
	case *common.MessageMissionRequest, *common.MessageMissionRequestInt, *common.MessageMissionAck:
		return true
	}
	return false
}

func matchMissionItemReply(msg message.Message) bool {
	switch msg.(type) {
	case *common.MessageMissionItemInt, *common.MessageMissionItem:
		return true
	}
	return false
}

func missionItemReply(msg message.Message) (seq int, cmd common.MAV_CMD) {
	switch m := msg.(type) {
	case *common.MessageMissionItemInt:
		return int(m.Seq), m.Command
	case *common.MessageMissionItem:
		return int(m.Seq), m.Command
	}
	return -1, 0
}
