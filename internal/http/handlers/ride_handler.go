// README: Ride handlers for create/get/accept/advance/cancel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideloop/internal/http/middleware"
	"rideloop/internal/modules/ride"
	"rideloop/internal/observability"
	"rideloop/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type placeReq struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

func (p placeReq) place() types.Place {
	return types.Place{Point: types.Point{Lat: p.Lat, Lng: p.Lng}, Label: p.Label}
}

type createRideReq struct {
	Pickup  placeReq `json:"pickup"`
	Dropoff placeReq `json:"dropoff"`
}

func (h *RideHandler) Create(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.rides.Create(c.Request.Context(), actor, ride.CreateCommand{
		Pickup:  req.Pickup.place(),
		Dropoff: req.Dropoff.place(),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	observability.RidesCreated.Inc()
	writeJSON(c, http.StatusCreated, gin.H{"ride_id": id, "status": ride.StatusPending})
}

func (h *RideHandler) Get(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	snap, err := h.rides.Get(c.Request.Context(), actor, types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snap)
}

func (h *RideHandler) Accept(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	err := h.rides.Accept(c.Request.Context(), actor, types.ID(c.Param("id")))
	if err != nil {
		if err == ride.ErrConflict {
			observability.RideConflicts.Inc()
		}
		writeRideError(c, err)
		return
	}
	observability.RideTransitions.WithLabelValues(string(ride.StatusAccepted)).Inc()
	writeJSON(c, http.StatusOK, gin.H{"status": ride.StatusAccepted})
}

type advanceReq struct {
	Target string `json:"target"`
}

func (h *RideHandler) Advance(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	var req advanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	target := ride.Status(req.Target)
	err := h.rides.Advance(c.Request.Context(), actor, ride.AdvanceCommand{
		RideID: types.ID(c.Param("id")),
		Target: target,
	})
	if err != nil {
		if err == ride.ErrConflict {
			observability.RideConflicts.Inc()
		}
		writeRideError(c, err)
		return
	}
	observability.RideTransitions.WithLabelValues(string(target)).Inc()
	writeJSON(c, http.StatusOK, gin.H{"status": target})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *RideHandler) Cancel(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	var req cancelReq
	_ = c.ShouldBindJSON(&req) // reason is optional
	err := h.rides.Cancel(c.Request.Context(), actor, ride.CancelCommand{
		RideID: types.ID(c.Param("id")),
		Reason: req.Reason,
	})
	if err != nil {
		if err == ride.ErrConflict {
			observability.RideConflicts.Inc()
		}
		writeRideError(c, err)
		return
	}
	observability.RideTransitions.WithLabelValues(string(ride.StatusCancelled)).Inc()
	writeJSON(c, http.StatusOK, gin.H{"status": ride.StatusCancelled})
}
