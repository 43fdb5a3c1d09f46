// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideloop/internal/modules/account"
	"rideloop/internal/modules/location"
	"rideloop/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// Store errors wrap the sentinels, so mapping goes through errors.Is.
func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ride.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ride.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeLocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, location.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, location.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, location.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrEmailTaken):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, account.ErrBadCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, account.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, account.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
