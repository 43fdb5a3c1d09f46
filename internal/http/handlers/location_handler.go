// README: Driver location update handler.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideloop/internal/http/middleware"
	"rideloop/internal/modules/location"
	"rideloop/internal/observability"
	"rideloop/internal/types"
)

type LocationHandler struct {
	locations *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{locations: svc}
}

type updateLocationReq struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	var observedAt time.Time
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}
	sample, stored, err := h.locations.Report(c.Request.Context(), actor, types.Point{Lat: req.Lat, Lng: req.Lng}, observedAt)
	if err != nil {
		writeLocationError(c, err)
		return
	}
	if stored {
		observability.LocationUpdates.Inc()
	} else {
		observability.LocationStaleDropped.Inc()
	}
	writeJSON(c, http.StatusOK, gin.H{
		"stored":      stored,
		"observed_at": sample.ObservedAt,
	})
}
