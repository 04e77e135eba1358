package mavlink

import (
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTransport_ReceiveFiltersNonMatching(t *testing.T) {
	tr := NewMockTransport()
	tr.Inject(&common.MessageAttitude{Roll: 1})
	tr.Inject(&common.MessageHeartbeat{CustomMode: 3})

	msg, err := tr.Receive(100*time.Millisecond, func(m message.Message) bool {
		_, ok := m.(*common.MessageHeartbeat)
		return ok
	})
	require.NoError(t, err)

	hb, ok := msg.(*common.MessageHeartbeat)
	require.True(t, ok)
	assert.Equal(t, uint32(3), hb.CustomMode)
}

func TestMockTransport_ReceiveTimeout(t *testing.T) {
	tr := NewMockTransport()

	_, err := tr.ReceiveAny(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMockTransport_SendHookSeesMessage(t *testing.T) {
	tr := NewMockTransport()

	var got message.Message
	tr.SendHook = func(m message.Message) { got = m }

	err := tr.Send(&common.MessageMissionCount{Count: 7})
	require.NoError(t, err)

	count, ok := got.(*common.MessageMissionCount)
	require.True(t, ok)
	assert.Equal(t, uint16(7), count.Count)
	assert.Len(t, tr.Sent(), 1)
}

func TestMockTransport_DrainEmptiesQueue(t *testing.T) {
	tr := NewMockTransport()
	tr.Inject(&common.MessageHeartbeat{})
	tr.Inject(&common.MessageHeartbeat{})

	tr.Drain()

	_, err := tr.ReceiveAny(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMockTransport_CloseIsFatal(t *testing.T) {
	tr := NewMockTransport()
	require.NoError(t, tr.Close())

	_, err := tr.ReceiveAny(10 * time.Millisecond)
	assert.True(t, IsFatal(err))

	err = tr.Send(&common.MessageHeartbeat{})
	assert.True(t, IsFatal(err))
}
