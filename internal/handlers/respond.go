package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RanaPoddar/gcs-service/internal/drone"
	"github.com/RanaPoddar/gcs-service/internal/mavlink"
)

// droneID parses the :id route parameter. A false return means the
// response has already been written.
func droneID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid drone id",
		})
		return 0, false
	}
	return id, true
}

// respondError maps the drone error taxonomy onto HTTP statuses and
// writes the {success:false, error, details?} failure shape.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{
		"success": false,
		"error":   err.Error(),
	}

	var precondition *drone.PreconditionError
	var armFailed *drone.ArmFailedError
	var rejected *drone.RejectedError
	var timeout *drone.ProtocolTimeoutError
	var verification *drone.VerificationError
	var unconfirmed *drone.ModeUnconfirmedError

	switch {
	case errors.Is(err, drone.ErrNotConnected),
		errors.Is(err, drone.ErrAlreadyConnected),
		errors.Is(err, drone.ErrUploadBusy):
		status = http.StatusConflict
	case errors.As(err, &precondition):
		status = http.StatusBadRequest
		body["details"] = precondition.Issues
	case errors.As(err, &armFailed):
		status = http.StatusConflict
		body["details"] = armFailed.Issues
		body["diagnostics"] = armFailed.Diagnostics
		body["status_texts"] = armFailed.StatusTexts
	case errors.As(err, &rejected):
		status = http.StatusConflict
	case errors.As(err, &timeout):
		status = http.StatusGatewayTimeout
	case errors.As(err, &verification):
		status = http.StatusBadGateway
	case errors.As(err, &unconfirmed):
		status = http.StatusBadGateway
	case mavlink.IsFatal(err):
		status = http.StatusBadGateway
	}

	c.JSON(status, body)
}

// respondOK writes {success:true} plus any extra fields.
func respondOK(c *gin.Context, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
