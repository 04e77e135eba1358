package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RanaPoddar/gcs-service/internal/config"
	"github.com/RanaPoddar/gcs-service/internal/drone"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

// DroneHandler handles vehicle connection lifecycle requests
type DroneHandler struct {
	registry *drone.Registry
	fleet    *config.Fleet
	defaults config.FleetConfig
	sink     notify.Sink
}

// NewDroneHandler creates a new drone handler. fleet may be nil when no
// fleet file is configured.
func NewDroneHandler(registry *drone.Registry, fleet *config.Fleet, defaults config.FleetConfig, sink notify.Sink) *DroneHandler {
	return &DroneHandler{
		registry: registry,
		fleet:    fleet,
		defaults: defaults,
		sink:     sink,
	}
}

// ConnectRequest represents the connect request body. All fields are
// optional; the fleet file and service defaults fill the gaps.
type ConnectRequest struct {
	Port       string `json:"port"`
	Baudrate   int    `json:"baudrate"`
	Simulation *bool  `json:"simulation"`
}

// DroneSummary represents one vehicle in the listing response
type DroneSummary struct {
	ID         int    `json:"id"`
	Name       string `json:"name,omitempty"`
	Connected  bool   `json:"connected"`
	Simulation bool   `json:"simulation"`
	Endpoint   string `json:"endpoint,omitempty"`
	FlightMode string `json:"flight_mode"`
	Armed      bool   `json:"armed"`
}

// Connect establishes a MAVLink connection to a vehicle
// POST /api/v1/drone/:id/connect
func (h *DroneHandler) Connect(c *gin.Context) {
	id, ok := droneID(c)
	if !ok {
		return
	}

	var req ConnectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid request body: " + err.Error(),
			})
			return
		}
	}

	if existing, ok := h.registry.Get(id); ok && existing.Connected() {
		respondError(c, drone.ErrAlreadyConnected)
		return
	}

	opts := h.resolveOptions(id, req)
	conn := drone.NewConnection(id, opts)
	if err := conn.Connect(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.registry.Put(conn)
	h.sink.Publish(notify.Event{
		Kind:    notify.KindStatus,
		DroneID: id,
		Payload: map[string]string{"status": "connected"},
		Time:    time.Now(),
	})

	respondOK(c, gin.H{
		"connected":  true,
		"simulation": conn.Simulation,
	})
}

// resolveOptions layers the request body over the fleet entry over the
// service defaults.
func (h *DroneHandler) resolveOptions(id int, req ConnectRequest) drone.Options {
	opts := drone.Options{
		Endpoint:   h.defaults.DefaultEndpoint,
		Baud:       h.defaults.DefaultBaud,
		Simulation: h.defaults.Simulation,
	}

	if h.fleet != nil {
		if entry, ok := h.fleet.Lookup(id); ok {
			opts.Endpoint = entry.Endpoint
			opts.Baud = entry.Baud
			opts.Simulation = entry.Simulation
		}
	}

	if req.Port != "" {
		opts.Endpoint = req.Port
	}
	if req.Baudrate > 0 {
		opts.Baud = req.Baudrate
	}
	if req.Simulation != nil {
		opts.Simulation = *req.Simulation
	}

	opts.Sink = h.sink
	return opts
}

// Disconnect tears down a vehicle connection
// POST /api/v1/drone/:id/disconnect
func (h *DroneHandler) Disconnect(c *gin.Context) {
	id, ok := droneID(c)
	if !ok {
		return
	}

	conn, ok := h.registry.Remove(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "drone not found",
		})
		return
	}

	conn.Disconnect()
	h.sink.Publish(notify.Event{
		Kind:    notify.KindStatus,
		DroneID: id,
		Payload: map[string]string{"status": "disconnected"},
		Time:    time.Now(),
	})

	respondOK(c, nil)
}

// List returns every registered vehicle
// GET /api/v1/drones
func (h *DroneHandler) List(c *gin.Context) {
	conns := h.registry.List()
	summaries := make([]DroneSummary, len(conns))
	for i, conn := range conns {
		t := conn.Telemetry()
		summary := DroneSummary{
			ID:         conn.ID,
			Connected:  conn.Connected(),
			Simulation: conn.Simulation,
			Endpoint:   conn.Endpoint,
			FlightMode: t.FlightMode,
			Armed:      t.Armed,
		}
		if h.fleet != nil {
			if entry, ok := h.fleet.Lookup(conn.ID); ok {
				summary.Name = entry.Name
			}
		}
		summaries[i] = summary
	}

	c.JSON(http.StatusOK, gin.H{
		"drones": summaries,
		"total":  len(summaries),
	})
}

// Telemetry returns the full vehicle state snapshot
// GET /api/v1/drone/:id/telemetry
func (h *DroneHandler) Telemetry(c *gin.Context) {
	conn, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, conn.Telemetry())
}

// Status returns connection state plus the retained status texts
// GET /api/v1/drone/:id/status
func (h *DroneHandler) Status(c *gin.Context) {
	conn, ok := h.lookup(c)
	if !ok {
		return
	}
	t := conn.Telemetry()
	c.JSON(http.StatusOK, gin.H{
		"connected":    conn.Connected(),
		"simulation":   conn.Simulation,
		"armed":        t.Armed,
		"flight_mode":  t.FlightMode,
		"status_texts": conn.StatusLog(),
	})
}

// lookup resolves the :id parameter to a registered connection,
// writing a 404 when it is unknown.
func (h *DroneHandler) lookup(c *gin.Context) (*drone.Connection, bool) {
	id, ok := droneID(c)
	if !ok {
		return nil, false
	}
	conn, ok := h.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "drone not found",
		})
		return nil, false
	}
	return conn, true
}
