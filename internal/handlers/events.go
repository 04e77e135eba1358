package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/RanaPoddar/gcs-service/internal/notify"
)

// EventsHandler upgrades dashboard clients onto the event hub
// GET /api/v1/events
func EventsHandler(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeHTTP(c.Writer, c.Request)
	}
}
