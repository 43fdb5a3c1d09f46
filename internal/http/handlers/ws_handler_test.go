// README: Websocket subscription tests.
package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rideloop/internal/auth"
	apihttp "rideloop/internal/http"
	"rideloop/internal/modules/account"
	"rideloop/internal/modules/location"
	"rideloop/internal/modules/ride"
	"rideloop/internal/push"
	"rideloop/internal/types"
)

type wsFixture struct {
	server *httptest.Server
	rides  *ride.Service
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := tokenMap{
		"rider-token":  {ID: "r1", Role: auth.RoleRider},
		"driver-token": {ID: "d1", Role: auth.RoleDriver},
		"rider2-token": {ID: "r2", Role: auth.RoleRider},
	}
	hub := push.NewHub()
	loc := location.NewService(location.NewMemoryStore(), nil)
	rides := ride.NewService(ride.NewMemoryStore(), loc, nil, hub)
	accounts := account.NewService(account.NewMemoryStore(), auth.NewTokenService([]byte("test"), time.Hour))

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Verifier: tokens,
		Accounts: accounts,
		Rides:    rides,
		Location: loc,
		Hub:      hub,
		Log:      zap.NewNop(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &wsFixture{server: server, rides: rides}
}

func (f *wsFixture) dial(t *testing.T, rideID types.ID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/rides/" + string(rideID) + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) ride.Snapshot {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap ride.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	return snap
}

func TestWebsocketStreamsTransitions(t *testing.T) {
	f := newWSFixture(t)
	ctx := context.Background()
	rider := auth.Actor{ID: "r1", Role: auth.RoleRider}
	driver := auth.Actor{ID: "d1", Role: auth.RoleDriver}

	rideID, err := f.rides.Create(ctx, rider, ride.CreateCommand{
		Pickup:  types.Place{Point: types.Point{Lat: 23.78, Lng: 90.42}},
		Dropoff: types.Place{Point: types.Point{Lat: 23.77, Lng: 90.40}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	conn := f.dial(t, rideID, "rider-token")

	// First frame is the current state.
	if snap := readSnapshot(t, conn); snap.Status != ride.StatusPending {
		t.Fatalf("expected pending first, got %s", snap.Status)
	}

	if err := f.rides.Accept(ctx, driver, rideID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if snap := readSnapshot(t, conn); snap.Status != ride.StatusAccepted {
		t.Fatalf("expected accepted, got %s", snap.Status)
	}

	if err := f.rides.Advance(ctx, driver, ride.AdvanceCommand{RideID: rideID, Target: ride.StatusPickedUp}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if snap := readSnapshot(t, conn); snap.Status != ride.StatusPickedUp {
		t.Fatalf("expected picked_up, got %s", snap.Status)
	}
}

func TestWebsocketRejectsNonParticipant(t *testing.T) {
	f := newWSFixture(t)
	rider := auth.Actor{ID: "r1", Role: auth.RoleRider}

	rideID, err := f.rides.Create(context.Background(), rider, ride.CreateCommand{
		Pickup:  types.Place{Point: types.Point{Lat: 23.78, Lng: 90.42}},
		Dropoff: types.Place{Point: types.Point{Lat: 23.77, Lng: 90.40}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/rides/" + string(rideID) + "?token=rider2-token"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure for non-participant")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake response, got %+v", resp)
	}
}
