// README: Per-ride status fan-out feeding the websocket endpoint.
package push

import (
	"sync"

	"rideloop/internal/modules/ride"
	"rideloop/internal/observability"
	"rideloop/internal/types"
)

const subscriberBuffer = 8

// Hub fans applied ride transitions out to per-ride subscribers. It
// implements ride.StatusListener. Delivery is best effort; a subscriber whose
// buffer is full is dropped rather than blocking the transition path.
type Hub struct {
	mu   sync.Mutex
	subs map[types.ID]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[types.ID]map[*Subscription]struct{})}
}

type Subscription struct {
	hub    *Hub
	rideID types.ID
	ch     chan ride.Snapshot
}

// C yields one snapshot per applied transition. The channel is closed when
// the subscription ends, by Close or by falling behind.
func (s *Subscription) C() <-chan ride.Snapshot { return s.ch }

func (s *Subscription) Close() {
	s.hub.mu.Lock()
	s.hub.dropLocked(s)
	s.hub.mu.Unlock()
}

func (h *Hub) Subscribe(rideID types.ID) *Subscription {
	s := &Subscription{hub: h, rideID: rideID, ch: make(chan ride.Snapshot, subscriberBuffer)}
	h.mu.Lock()
	set, ok := h.subs[rideID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[rideID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	observability.WebsocketSubscribers.Inc()
	return s
}

// dropLocked removes a subscription and closes its channel exactly once.
// Sends happen under the same mutex, so a closed channel is never sent to.
func (h *Hub) dropLocked(s *Subscription) {
	set, ok := h.subs[s.rideID]
	if !ok {
		return
	}
	if _, present := set[s]; !present {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.rideID)
	}
	close(s.ch)
	observability.WebsocketSubscribers.Dec()
}

// RideChanged satisfies ride.StatusListener.
func (h *Hub) RideChanged(snap ride.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[snap.RideID] {
		select {
		case s.ch <- snap:
		default:
			h.dropLocked(s)
		}
	}
}
