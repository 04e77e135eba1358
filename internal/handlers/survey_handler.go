package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/RanaPoddar/gcs-service/internal/survey"
)

// SurveyHandler handles survey mission planning requests
type SurveyHandler struct{}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler() *SurveyHandler {
	return &SurveyHandler{}
}

// SurveyRequest represents the survey planning request body. The
// boundary comes either inline or as a raw KML document.
type SurveyRequest struct {
	Boundary []survey.Point `json:"boundary"`
	KML      string         `json:"kml"`

	AltitudeM      float64 `json:"altitude_m"`
	SpeedMS        float64 `json:"speed_ms"`
	LateralOverlap float64 `json:"lateral_overlap"`
}

// Plan generates a lawnmower coverage plan over a boundary polygon
// POST /api/v1/survey/plan
func (h *SurveyHandler) Plan(c *gin.Context) {
	var req SurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}

	boundary := req.Boundary
	if len(boundary) == 0 && req.KML != "" {
		parsed, err := survey.ParseKML(strings.NewReader(req.KML))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid KML: " + err.Error(),
			})
			return
		}
		boundary = parsed
	}
	if len(boundary) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "either boundary points or a KML document is required",
		})
		return
	}

	plan, err := survey.PlanSurvey(boundary, survey.Params{
		AltitudeM:      req.AltitudeM,
		SpeedMS:        req.SpeedMS,
		LateralOverlap: req.LateralOverlap,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	respondOK(c, gin.H{"plan": plan})
}
