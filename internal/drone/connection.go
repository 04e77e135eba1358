package drone

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/RanaPoddar/gcs-service/internal/mavlink"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

const (
	defaultBaud       = 57600
	telemetryRateHz   = 4
	defaultSimLat     = 12.9716
	defaultSimLon     = 77.5946
	defaultSimVoltage = 12.6
)

// Options configures a Connection.
type Options struct {
	// Endpoint is a serial device path or a udp:// address. Ignored in
	// simulation mode or when Transport is set.
	Endpoint string
	Baud     int

	// Simulation runs a synthetic vehicle with no link at all.
	Simulation bool

	// Transport overrides dialing; used by tests to script the
	// autopilot side of the link.
	Transport mavlink.Transport

	// Sink receives telemetry, detection, and mission events. Optional.
	Sink notify.Sink

	// Timing overrides the protocol delays and budgets. Optional.
	Timing *Timing
}

// Connection manages one vehicle: the link, the ingestion loop, and all
// command and mission operations against it.
type Connection struct {
	ID         int
	Endpoint   string
	Baud       int
	Simulation bool

	transport mavlink.Transport
	state     *State
	sink      notify.Sink
	timing    Timing

	// running gates the ingestion (or simulation) loop; connected is
	// what the HTTP surface reports. uploading is the cooperative
	// transport handoff: while set, the ingestion loop backs off and the
	// mission transfer protocol is the only transport reader.
	running   atomic.Bool
	connected atomic.Bool
	uploading atomic.Bool

	mu            sync.Mutex
	plan          *MissionPlan
	missionActive bool
	currentSeq    int

	wg sync.WaitGroup
}

// NewConnection builds a Connection; Connect establishes the link.
func NewConnection(id int, opts Options) *Connection {
	c := &Connection{
		ID:         id,
		Endpoint:   opts.Endpoint,
		Baud:       opts.Baud,
		Simulation: opts.Simulation,
		transport:  opts.Transport,
		state:      NewState(),
		sink:       opts.Sink,
		timing:     DefaultTiming(),
	}
	if c.Baud == 0 {
		c.Baud = defaultBaud
	}
	if c.sink == nil {
		c.sink = notify.NewConsoleSink()
	}
	if opts.Timing != nil {
		c.timing = *opts.Timing
	}
	return c
}

// Connect establishes the link, waits for the first heartbeat, requests
// telemetry streams, and starts the ingestion loop. In simulation mode
// it seeds synthetic state and starts the playback loop instead.
func (c *Connection) Connect() error {
	if c.connected.Load() {
		return ErrAlreadyConnected
	}

	if c.Simulation {
		c.seedSimulation()
		c.running.Store(true)
		c.connected.Store(true)
		c.wg.Add(1)
		go c.simLoop()
		log.Printf("[drone %d] simulation started", c.ID)
		return nil
	}

	if c.transport == nil {
		tr, err := mavlink.Dial(c.Endpoint, c.Baud)
		if err != nil {
			return fmt.Errorf("connect drone %d: %w", c.ID, err)
		}
		c.transport = tr
	}

	msg, err := c.transport.Receive(c.timing.HeartbeatWait, func(m message.Message) bool {
		_, ok := m.(*common.MessageHeartbeat)
		return ok
	})
	if err != nil {
		c.transport.Close()
		c.transport = nil
		return fmt.Errorf("connect drone %d: no heartbeat on %s: %w", c.ID, c.Endpoint, err)
	}
	c.apply(msg)
	log.Printf("[drone %d] heartbeat from system %d on %s",
		c.ID, c.transport.TargetSystem(), c.Endpoint)

	c.requestDataStreams()

	c.running.Store(true)
	c.connected.Store(true)
	c.wg.Add(1)
	go c.ingestLoop()
	return nil
}

// Disconnect stops the loops and closes the link. Safe to call twice.
func (c *Connection) Disconnect() {
	c.running.Store(false)
	c.connected.Store(false)
	c.wg.Wait()
	if c.transport != nil {
		c.transport.Close()
		c.transport = nil
	}
	log.Printf("[drone %d] disconnected", c.ID)
}

// Connected reports whether the vehicle is live (link up, or simulated).
func (c *Connection) Connected() bool { return c.connected.Load() }

// Telemetry returns the current snapshot.
func (c *Connection) Telemetry() Telemetry { return c.state.Snapshot() }

// StatusLog returns the retained STATUSTEXT entries, oldest first.
func (c *Connection) StatusLog() []StatusText { return c.state.StatusLog() }

// requestDataStreams asks the autopilot for telemetry at a usable rate,
// both the legacy REQUEST_DATA_STREAM way and the modern
// SET_MESSAGE_INTERVAL way; ArduPilot honours whichever it speaks.
func (c *Connection) requestDataStreams() {
	streams := []common.MAV_DATA_STREAM{
		common.MAV_DATA_STREAM_ALL,
		common.MAV_DATA_STREAM_POSITION,
		common.MAV_DATA_STREAM_EXTENDED_STATUS,
		common.MAV_DATA_STREAM_EXTRA1,
		common.MAV_DATA_STREAM_EXTRA2,
	}
	for _, id := range streams {
		err := c.transport.Send(&common.MessageRequestDataStream{
			TargetSystem:    c.transport.TargetSystem(),
			TargetComponent: c.transport.TargetComponent(),
			ReqStreamId:     uint8(id),
			ReqMessageRate:  telemetryRateHz,
			StartStop:       1,
		})
		if err != nil {
			log.Printf("[drone %d] request stream %d: %v", c.ID, id, err)
			return
		}
		time.Sleep(c.timing.StreamGap)
	}

	intervalUS := float32(1_000_000 / telemetryRateHz)
	wanted := []message.Message{
		&common.MessageHeartbeat{},
		&common.MessageSysStatus{},
		&common.MessageGpsRawInt{},
		&common.MessageAttitude{},
		&common.MessageGlobalPositionInt{},
		&common.MessageVfrHud{},
	}
	for _, m := range wanted {
		err := c.sendCommand(common.MAV_CMD_SET_MESSAGE_INTERVAL,
			float32(m.GetID()), intervalUS, 0, 0, 0, 0, 0)
		if err != nil {
			log.Printf("[drone %d] set message interval %d: %v", c.ID, m.GetID(), err)
			return
		}
		time.Sleep(c.timing.StreamGap)
	}
}

// sendCommand sends a COMMAND_LONG addressed to the vehicle.
func (c *Connection) sendCommand(cmd common.MAV_CMD, p1, p2, p3, p4, p5, p6, p7 float32) error {
	return c.transport.Send(&common.MessageCommandLong{
		TargetSystem:    c.transport.TargetSystem(),
		TargetComponent: c.transport.TargetComponent(),
		Command:         cmd,
		Param1:          p1,
		Param2:          p2,
		Param3:          p3,
		Param4:          p4,
		Param5:          p5,
		Param6:          p6,
		Param7:          p7,
	})
}

// handleLinkDown marks the connection dead after a fatal transport
// error.
func (c *Connection) handleLinkDown(err error) {
	log.Printf("[drone %d] link down: %v", c.ID, err)
	c.running.Store(false)
	c.connected.Store(false)
	c.publishStatus("link lost")
}

func (c *Connection) publishStatus(text string) {
	c.sink.Publish(notify.Event{
		Kind:    notify.KindStatus,
		DroneID: c.ID,
		Payload: map[string]string{"status": text},
		Time:    time.Now(),
	})
}

func (c *Connection) publishMission(text string) {
	c.sink.Publish(notify.Event{
		Kind:    notify.KindMission,
		DroneID: c.ID,
		Payload: map[string]string{"mission": text},
		Time:    time.Now(),
	})
}
