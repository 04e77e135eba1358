package drone

import (
	"testing"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPoddar/gcs-service/internal/mavlink"
)

func TestArm_HardBatteryFloor(t *testing.T) {
	c, _ := newTestConn(mavlink.NewMockTransport())
	setHealthy(c, "STABILIZE", false)
	c.state.Update(func(tel *Telemetry) { tel.BatteryVoltage = 9.9 })

	err := c.Arm()

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Contains(t, err.Error(), "battery voltage 9.9V")
}

func TestArm_NoFixRefused(t *testing.T) {
	c, _ := newTestConn(mavlink.NewMockTransport())
	setHealthy(c, "STABILIZE", false)
	c.state.Update(func(tel *Telemetry) { tel.GPSFixType = 1 })

	err := c.Arm()

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Contains(t, err.Error(), "no GPS fix")
}

func TestArm_VerifiedViaHeartbeat(t *testing.T) {
	tr := mavlink.NewMockTransport()
	c, _ := newTestConn(tr)
	setHealthy(c, "STABILIZE", false)

	tr.SendHook = func(msg message.Message) {
		if m, ok := msg.(*common.MessageCommandLong); ok &&
			m.Command == common.MAV_CMD_COMPONENT_ARM_DISARM && m.Param1 == 1 {
			c.state.Update(func(tel *Telemetry) { tel.Armed = true })
		}
	}

	require.NoError(t, c.Arm())
	assert.True(t, c.Telemetry().Armed)
}

func TestArm_AlreadyArmedIsNoop(t *testing.T) {
	tr := mavlink.NewMockTransport()
	c, _ := newTestConn(tr)
	setHealthy(c, "GUIDED", true)

	require.NoError(t, c.Arm())
	assert.Empty(t, tr.Sent())
}

func TestArm_ExhaustionCarriesDiagnostics(t *testing.T) {
	c, _ := newTestConn(mavlink.NewMockTransport())
	setHealthy(c, "STABILIZE", false)
	c.state.AppendStatusText(StatusText{Severity: 2, Text: "PreArm: Compass not calibrated"})

	err := c.Arm()

	var armErr *ArmFailedError
	require.ErrorAs(t, err, &armErr)
	assert.Contains(t, armErr.Diagnostics, "fix 3")
	require.Len(t, armErr.StatusTexts, 1)
	assert.Contains(t, armErr.StatusTexts[0].Text, "Compass")
}

func TestDisarm_Sends(t *testing.T) {
	tr := mavlink.NewMockTransport()
	c, _ := newTestConn(tr)
	setHealthy(c, "STABILIZE", true)

	require.NoError(t, c.Disarm())

	sent := tr.Sent()
	require.Len(t, sent, 1)
	cmd := sent[0].(*common.MessageCommandLong)
	assert.Equal(t, common.MAV_CMD_COMPONENT_ARM_DISARM, cmd.Command)
	assert.Equal(t, float32(0), cmd.Param1)
}

func TestSetMode_UnknownMode(t *testing.T) {
	c, _ := newTestConn(mavlink.NewMockTransport())

	err := c.SetMode("WARP")

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
}

func TestSetMode_SendsDoubledSwitch(t *testing.T) {
	tr := mavlink.NewMockTransport()
	c, _ := newTestConn(tr)
	setHealthy(c, "STABILIZE", false)

	tr.SendHook = func(msg message.Message) {
		if _, ok := msg.(*common.MessageSetMode); ok {
			c.state.Update(func(tel *Telemetry) { tel.FlightMode = "GUIDED" })
		}
	}

	require.NoError(t, c.SetMode("guided"))

	var commands, setModes int
	for _, msg := range tr.Sent() {
		switch m := msg.(type) {
		case *common.MessageCommandLong:
			if m.Command == common.MAV_CMD_DO_SET_MODE {
				commands++
			}
		case *common.MessageSetMode:
			setModes++
			assert.Equal(t, uint32(4), m.CustomMode)
		}
	}
	assert.Equal(t, 1, commands)
	assert.Equal(t, 2, setModes)
}

func TestTakeoff_RequiresArmed(t *testing.T) {
	c, _ := newTestConn(mavlink.NewMockTransport())
	setHealthy(c, "GUIDED", false)

	err := c.Takeoff(20)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Contains(t, err.Error(), "not armed")
}

func TestTakeoff_RejectedAckSurfaced(t *testing.T) {
	tr := mavlink.NewMockTransport()
	c, _ := newTestConn(tr)
	setHealthy(c, "GUIDED", true)

	tr.SendHook = func(msg message.Message) {
		if m, ok := msg.(*common.MessageCommandLong); ok && m.Command == common.MAV_CMD_NAV_TAKEOFF {
			c.state.RecordAck(m.Command, common.MAV_RESULT_DENIED)
		}
	}

	err := c.Takeoff(20)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, int(common.MAV_RESULT_DENIED), rejected.Code)
}

func TestTakeoff_MissingAckProceeds(t *testing.T) {
	tr := mavlink.NewMockTransport()
	c, _ := newTestConn(tr)
	setHealthy(c, "GUIDED", true)

	require.NoError(t, c.Takeoff(20))

	last := tr.Sent()[len(tr.Sent())-1].(*common.MessageCommandLong)
	assert.Equal(t, common.MAV_CMD_NAV_TAKEOFF, last.Command)
	assert.Equal(t, float32(20), last.Param7)
}

func TestReturnToLaunch_UnconfirmedIsSuccess(t *testing.T) {
	tr := mavlink.NewMockTransport()
	c, _ := newTestConn(tr)
	setHealthy(c, "GUIDED", true)

	// No mode confirmation ever arrives; the command was still
	// delivered, which is the contract for RTL.
	require.NoError(t, c.ReturnToLaunch())
	assert.NotEmpty(t, tr.Sent())
}

func TestGoto_SendsPositionTarget(t *testing.T) {
	tr := mavlink.NewMockTransport()
	c, _ := newTestConn(tr)
	setHealthy(c, "GUIDED", true)

	require.NoError(t, c.Goto(12.5, 77.25, 25))

	sent := tr.Sent()
	target := sent[len(sent)-1].(*common.MessageSetPositionTargetGlobalInt)
	assert.Equal(t, int32(125000000), target.LatInt)
	assert.Equal(t, int32(772500000), target.LonInt)
	assert.Equal(t, float32(25), target.Alt)
	assert.Equal(t, common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT, target.CoordinateFrame)
}

func TestGoto_RequiresArmed(t *testing.T) {
	c, _ := newTestConn(mavlink.NewMockTransport())
	setHealthy(c, "GUIDED", false)

	err := c.Goto(12.98, 77.60, 25)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
}
