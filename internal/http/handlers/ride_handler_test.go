// README: End-to-end handler tests over the full router with in-memory stores.
package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rideloop/internal/auth"
	apihttp "rideloop/internal/http"
	"rideloop/internal/modules/account"
	"rideloop/internal/modules/location"
	"rideloop/internal/modules/ride"
	"rideloop/internal/push"
	"rideloop/internal/types"
)

// tokenMap resolves fixed bearer tokens to actors, standing in for the JWT
// verifier.
type tokenMap map[string]auth.Actor

func (m tokenMap) Verify(token string) (auth.Actor, error) {
	a, ok := m[token]
	if !ok {
		return auth.Actor{}, auth.ErrInvalidToken
	}
	return a, nil
}

type apiFixture struct {
	router *gin.Engine
	tokens tokenMap
}

func newFixture() *apiFixture {
	gin.SetMode(gin.TestMode)
	tokens := tokenMap{
		"rider-token":   {ID: "r1", Role: auth.RoleRider},
		"rider2-token":  {ID: "r2", Role: auth.RoleRider},
		"driver-token":  {ID: "d1", Role: auth.RoleDriver},
		"driver2-token": {ID: "d2", Role: auth.RoleDriver},
	}
	loc := location.NewService(location.NewMemoryStore(), nil)
	rides := ride.NewService(ride.NewMemoryStore(), loc, nil, nil)
	accounts := account.NewService(account.NewMemoryStore(), auth.NewTokenService([]byte("test"), time.Hour))

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Verifier: tokens,
		Accounts: accounts,
		Rides:    rides,
		Location: loc,
		Hub:      push.NewHub(),
		Log:      zap.NewNop(),
	})
	return &apiFixture{router: router, tokens: tokens}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

var rideBody = map[string]any{
	"pickup":  map[string]any{"lat": 23.78, "lng": 90.42, "label": "Gulshan 1"},
	"dropoff": map[string]any{"lat": 23.77, "lng": 90.40, "label": "Dhanmondi 27"},
}

func createRide(t *testing.T, f *apiFixture) types.ID {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/rides", "rider-token", rideBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("create ride: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		RideID types.ID `json:"ride_id"`
	}
	decode(t, w, &resp)
	return resp.RideID
}

func TestRideLifecycleOverHTTP(t *testing.T) {
	f := newFixture()
	rideID := createRide(t, f)

	// Pending ride shows up for the driver.
	w := f.do(t, http.MethodGet, "/api/rides/available", "driver-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list available: expected 200, got %d", w.Code)
	}
	var avail struct {
		Rides []ride.AvailableRide `json:"rides"`
	}
	decode(t, w, &avail)
	if len(avail.Rides) != 1 || avail.Rides[0].RideID != rideID {
		t.Fatalf("unexpected availability list: %+v", avail.Rides)
	}

	if w := f.do(t, http.MethodPost, fmt.Sprintf("/api/rides/%s/accept", rideID), "driver-token", nil); w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	// Driver reports a position; the rider's snapshot now carries it.
	loc := map[string]any{"lat": 23.785, "lng": 90.415}
	if w := f.do(t, http.MethodPatch, "/api/driver/location", "driver-token", loc); w.Code != http.StatusOK {
		t.Fatalf("location update: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/api/rides/"+string(rideID), "rider-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	var snap ride.Snapshot
	decode(t, w, &snap)
	if snap.Status != ride.StatusAccepted {
		t.Fatalf("expected accepted, got %s", snap.Status)
	}
	if snap.DriverPosition == nil || snap.DriverPosition.Lat != 23.785 {
		t.Fatalf("expected driver position in snapshot, got %+v", snap.DriverPosition)
	}

	for _, target := range []string{"picked_up", "on_the_way", "finished"} {
		w := f.do(t, http.MethodPost, fmt.Sprintf("/api/rides/%s/advance", rideID), "driver-token", map[string]any{"target": target})
		if w.Code != http.StatusOK {
			t.Fatalf("advance to %s: expected 200, got %d (%s)", target, w.Code, w.Body.String())
		}
	}

	// Finished rides surface no position.
	w = f.do(t, http.MethodGet, "/api/rides/"+string(rideID), "rider-token", nil)
	snap = ride.Snapshot{}
	decode(t, w, &snap)
	if snap.Status != ride.StatusFinished || snap.DriverPosition != nil {
		t.Fatalf("unexpected final snapshot: %+v", snap)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	f := newFixture()
	rideID := createRide(t, f)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodPost, "/api/rides", "", rideBody, http.StatusUnauthorized},
		{"bad token", http.MethodPost, "/api/rides", "bogus", rideBody, http.StatusUnauthorized},
		{"driver cannot request", http.MethodPost, "/api/rides", "driver-token", rideBody, http.StatusForbidden},
		{"rider cannot browse", http.MethodGet, "/api/rides/available", "rider-token", nil, http.StatusForbidden},
		{"rider cannot accept", http.MethodPost, fmt.Sprintf("/api/rides/%s/accept", rideID), "rider-token", nil, http.StatusForbidden},
		{"unknown ride", http.MethodGet, "/api/rides/missing", "rider-token", nil, http.StatusNotFound},
		{"stranger cannot view", http.MethodGet, "/api/rides/" + string(rideID), "rider2-token", nil, http.StatusForbidden},
		{"bad coordinates", http.MethodPost, "/api/rides", "rider-token", map[string]any{
			"pickup":  map[string]any{"lat": 99.0, "lng": 90.42},
			"dropoff": map[string]any{"lat": 23.77, "lng": 90.40},
		}, http.StatusBadRequest},
		{"bad advance target", http.MethodPost, fmt.Sprintf("/api/rides/%s/advance", rideID), "driver-token", map[string]any{"target": "teleported"}, http.StatusBadRequest},
		{"rider location rejected", http.MethodPatch, "/api/driver/location", "rider-token", map[string]any{"lat": 1.0, "lng": 1.0}, http.StatusForbidden},
	}
	for _, tc := range cases {
		w := f.do(t, tc.method, tc.path, tc.token, tc.body)
		if w.Code != tc.want {
			t.Errorf("%s: expected %d, got %d (%s)", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestAcceptConflictOverHTTP(t *testing.T) {
	f := newFixture()
	rideID := createRide(t, f)

	if w := f.do(t, http.MethodPost, fmt.Sprintf("/api/rides/%s/accept", rideID), "driver-token", nil); w.Code != http.StatusOK {
		t.Fatalf("first accept: expected 200, got %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, fmt.Sprintf("/api/rides/%s/accept", rideID), "driver2-token", nil); w.Code != http.StatusConflict {
		t.Fatalf("second accept: expected 409, got %d", w.Code)
	}
	// Retrying keeps failing; the loser never silently wins.
	if w := f.do(t, http.MethodPost, fmt.Sprintf("/api/rides/%s/accept", rideID), "driver2-token", nil); w.Code != http.StatusConflict {
		t.Fatalf("retried accept: expected 409, got %d", w.Code)
	}
}

func TestCancelOverHTTP(t *testing.T) {
	f := newFixture()
	rideID := createRide(t, f)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/rides/%s/cancel", rideID), "rider-token", map[string]any{"reason": "changed my mind"})
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodPost, fmt.Sprintf("/api/rides/%s/accept", rideID), "driver-token", nil); w.Code != http.StatusConflict {
		t.Fatalf("accept after cancel: expected 409, got %d", w.Code)
	}
}

func TestSignupLoginProfileOverHTTP(t *testing.T) {
	f := newFixture()

	signup := map[string]any{
		"name":     "Asha Rahman",
		"email":    "asha@example.com",
		"phone":    "+8801700000000",
		"password": "correct horse",
		"role":     "rider",
	}
	if w := f.do(t, http.MethodPost, "/api/auth/signup", "", signup); w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodPost, "/api/auth/signup", "", signup); w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", w.Code)
	}

	w := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "asha@example.com", "password": "correct horse"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var login struct {
		Token   string          `json:"token"`
		Profile account.Profile `json:"profile"`
	}
	decode(t, w, &login)
	if login.Token == "" || login.Profile.Email != "asha@example.com" {
		t.Fatalf("unexpected login response: %+v", login)
	}

	if w := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "asha@example.com", "password": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}
}
