package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RanaPoddar/gcs-service/internal/drone"
)

// CommandHandler handles flight command requests
type CommandHandler struct {
	registry *drone.Registry
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(registry *drone.Registry) *CommandHandler {
	return &CommandHandler{registry: registry}
}

// ModeRequest represents the mode change request body
type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// TakeoffRequest represents the takeoff request body
type TakeoffRequest struct {
	Altitude float64 `json:"altitude"`
}

// GotoRequest represents the guided reposition request body
type GotoRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Altitude  float64 `json:"altitude"`
}

// Arm arms the vehicle
// POST /api/v1/drone/:id/arm
func (h *CommandHandler) Arm(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}
	if err := conn.Arm(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "armed"})
}

// Disarm disarms the vehicle
// POST /api/v1/drone/:id/disarm
func (h *CommandHandler) Disarm(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}
	if err := conn.Disarm(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "disarmed"})
}

// SetMode switches the flight mode
// POST /api/v1/drone/:id/mode
func (h *CommandHandler) SetMode(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}

	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}

	if err := conn.SetMode(req.Mode); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// Takeoff commands a guided takeoff
// POST /api/v1/drone/:id/takeoff
func (h *CommandHandler) Takeoff(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}

	var req TakeoffRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid request body: " + err.Error(),
			})
			return
		}
	}
	if req.Altitude <= 0 {
		req.Altitude = 10
	}

	if err := conn.Takeoff(req.Altitude); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// Land commands a landing at the current position
// POST /api/v1/drone/:id/land
func (h *CommandHandler) Land(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}
	if err := conn.Land(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// RTL commands a return to launch
// POST /api/v1/drone/:id/rtl
func (h *CommandHandler) RTL(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}
	if err := conn.ReturnToLaunch(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// Goto repositions the vehicle in guided mode
// POST /api/v1/drone/:id/goto
func (h *CommandHandler) Goto(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}

	var req GotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}
	if req.Altitude <= 0 {
		req.Altitude = conn.Telemetry().RelativeAltitude
	}

	if err := conn.Goto(req.Latitude, req.Longitude, req.Altitude); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// connected resolves :id to a live connection; 404 for unknown ids,
// 409 for registered but disconnected vehicles.
func (h *CommandHandler) connected(c *gin.Context) (*drone.Connection, bool) {
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
	if !conn.Connected() {
		respondError(c, drone.ErrNotConnected)
		return nil, false
	}
	return conn, true
}
