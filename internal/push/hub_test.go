// README: Fan-out hub tests.
package push

import (
	"testing"
	"time"

	"rideloop/internal/modules/ride"
	"rideloop/internal/types"
)

func snap(rideID string, status ride.Status) ride.Snapshot {
	return ride.Snapshot{RideID: types.ID(rideID), Status: status}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("ride1")
	defer sub.Close()

	h.RideChanged(snap("ride1", ride.StatusAccepted))
	h.RideChanged(snap("ride1", ride.StatusPickedUp))

	for _, want := range []ride.Status{ride.StatusAccepted, ride.StatusPickedUp} {
		select {
		case got := <-sub.C():
			if got.Status != want {
				t.Fatalf("expected %s, got %s", want, got.Status)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestSubscriberOnlySeesOwnRide(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("ride1")
	defer sub.Close()

	h.RideChanged(snap("ride2", ride.StatusAccepted))

	select {
	case got := <-sub.C():
		t.Fatalf("unexpected snapshot for %s", got.RideID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("ride1")
	sub.Close()
	sub.Close() // idempotent

	h.RideChanged(snap("ride1", ride.StatusAccepted))

	if _, open := <-sub.C(); open {
		t.Fatal("expected closed channel after Close")
	}
}

func TestSlowSubscriberDropped(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("ride1")

	// Never drained: fill the buffer, then one more to force the drop.
	for i := 0; i <= subscriberBuffer; i++ {
		h.RideChanged(snap("ride1", ride.StatusAccepted))
	}

	// Drain what was buffered; the channel must end up closed.
	for i := 0; i < subscriberBuffer+1; i++ {
		if _, open := <-sub.C(); !open {
			return
		}
	}
	t.Fatal("expected slow subscriber to be dropped")
}

func TestMultipleSubscribersEachReceive(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("ride1")
	b := h.Subscribe("ride1")
	defer a.Close()
	defer b.Close()

	h.RideChanged(snap("ride1", ride.StatusFinished))

	for _, sub := range []*Subscription{a, b} {
		select {
		case got := <-sub.C():
			if got.Status != ride.StatusFinished {
				t.Fatalf("unexpected status %s", got.Status)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out")
		}
	}
}
