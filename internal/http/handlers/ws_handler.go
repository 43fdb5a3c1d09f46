// README: Websocket endpoint streaming ride status snapshots.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rideloop/internal/http/middleware"
	"rideloop/internal/modules/ride"
	"rideloop/internal/push"
	"rideloop/internal/types"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

type WSHandler struct {
	rides *ride.Service
	hub   *push.Hub
	log   *zap.Logger

	upgrader websocket.Upgrader
}

func NewWSHandler(rides *ride.Service, hub *push.Hub, log *zap.Logger) *WSHandler {
	return &WSHandler{
		rides: rides,
		hub:   hub,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe upgrades the connection and streams one snapshot per applied
// transition, starting with the current state. Authorization reuses the poll
// path, so only ride participants can attach.
func (h *WSHandler) Subscribe(c *gin.Context) {
	actor, _ := middleware.CallerActor(c)
	rideID := types.ID(c.Param("id"))

	snap, err := h.rides.Get(c.Request.Context(), actor, rideID)
	if err != nil {
		writeRideError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	sub := h.hub.Subscribe(rideID)

	// Reader only consumes control frames; any read error ends the session.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go h.writeLoop(conn, sub, snap, done)
}

func (h *WSHandler) writeLoop(conn *websocket.Conn, sub *push.Subscription, first ride.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		_ = conn.Close()
	}()

	if err := h.writeSnapshot(conn, first); err != nil {
		return
	}
	for {
		select {
		case snap, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "lagging"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.writeSnapshot(conn, snap); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) writeSnapshot(conn *websocket.Conn, snap ride.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snap)
}
