// README: Driver-facing handlers (availability index).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideloop/internal/http/middleware"
	"rideloop/internal/modules/ride"
)

type DriverHandler struct {
	rides *ride.Service
}

func NewDriverHandler(svc *ride.Service) *DriverHandler {
	return &DriverHandler{rides: svc}
}

func (h *DriverHandler) ListAvailable(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	rides, err := h.rides.ListAvailable(c.Request.Context(), actor)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": rides})
}
