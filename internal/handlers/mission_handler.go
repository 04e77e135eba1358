package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RanaPoddar/gcs-service/internal/drone"
)

// MissionHandler handles mission upload and execution requests
type MissionHandler struct {
	registry *drone.Registry
}

// NewMissionHandler creates a new mission handler
func NewMissionHandler(registry *drone.Registry) *MissionHandler {
	return &MissionHandler{registry: registry}
}

// UploadRequest represents the mission upload request body
type UploadRequest struct {
	Waypoints []drone.Waypoint `json:"waypoints" binding:"required"`
}

// Upload uploads a mission to the vehicle
// POST /api/v1/drone/:id/mission/upload
func (h *MissionHandler) Upload(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}

	plan, err := conn.UploadMission(req.Waypoints)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"waypoint_count": plan.Len()})
}

// Start begins executing the uploaded mission
// POST /api/v1/drone/:id/mission/start
func (h *MissionHandler) Start(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}
	if err := conn.StartMission(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "mission started"})
}

// Pause holds the vehicle at its current position
// POST /api/v1/drone/:id/mission/pause
func (h *MissionHandler) Pause(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}
	if err := conn.PauseMission(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "mission paused"})
}

// Resume continues a paused mission
// POST /api/v1/drone/:id/mission/resume
func (h *MissionHandler) Resume(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}
	if err := conn.ResumeMission(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "mission resumed"})
}

// Stop aborts the mission and returns the vehicle to launch
// POST /api/v1/drone/:id/mission/stop
func (h *MissionHandler) Stop(c *gin.Context) {
	conn, ok := h.connected(c)
	if !ok {
		return
	}
	if err := conn.StopMission(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "mission stopped, returning to launch"})
}

// Status reports mission execution progress
// GET /api/v1/drone/:id/mission/status
func (h *MissionHandler) Status(c *gin.Context) {
	id, ok := droneID(c)
	if !ok {
		return
	}
	conn, ok := h.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "drone not found",
		})
		return
	}
	c.JSON(http.StatusOK, conn.MissionProgress())
}

func (h *MissionHandler) connected(c *gin.Context) (*drone.Connection, bool) {
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
