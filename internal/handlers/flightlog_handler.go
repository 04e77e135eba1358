package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RanaPoddar/gcs-service/internal/flightlog"
)

const defaultFlightLogLimit = 100

// FlightLogHandler handles flight history requests
type FlightLogHandler struct {
	repo flightlog.Repository
}

// NewFlightLogHandler creates a new flight log handler
func NewFlightLogHandler(repo flightlog.Repository) *FlightLogHandler {
	return &FlightLogHandler{repo: repo}
}

// Get returns recent telemetry samples, events, and detections for a
// drone
// GET /api/v1/drone/:id/flightlog
func (h *FlightLogHandler) Get(c *gin.Context) {
	id, ok := droneID(c)
	if !ok {
		return
	}

	limit := defaultFlightLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid limit",
			})
			return
		}
		limit = parsed
	}

	ctx := c.Request.Context()

	telemetry, err := h.repo.RecentTelemetry(ctx, id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to query flight log",
		})
		return
	}
	events, err := h.repo.RecentEvents(ctx, id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to query flight log",
		})
		return
	}
	detections, err := h.repo.RecentDetections(ctx, id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to query flight log",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drone_id":   id,
		"telemetry":  telemetry,
		"events":     events,
		"detections": detections,
	})
}
