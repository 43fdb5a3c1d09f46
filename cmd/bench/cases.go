// README: Smoke cases covering auth, the ride lifecycle, and accept contention.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		start := time.Now()
		res := tc.Run(ctx, r)
		if res.Latency == 0 {
			res.Latency = time.Since(start)
		}
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s (%s)", res.Status, res.Name, res.Latency.Round(time.Millisecond))
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: API health", Run: checkHealth},
		{Name: "Env: Postgres connect", Run: checkPostgres},
		{Name: "Env: Redis connect", Run: checkRedis},
		{Name: "Auth: signup and login", Run: checkAuth},
		{Name: "Ride: full lifecycle", Run: checkLifecycle},
		{Name: "Ride: accept contention", Run: checkContention},
		{Name: "Location: stale update dropped", Run: checkStaleLocation},
	}
}

func checkHealth(ctx context.Context, r *Runner) Result {
	status, _, err := r.doJSON(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status %d", status)}
	}
	return Result{Status: "PASS"}
}

func checkPostgres(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: "SKIP", Note: "db not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	return Result{Status: "PASS"}
}

func checkRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: "SKIP", Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	return Result{Status: "PASS"}
}

func checkAuth(ctx context.Context, r *Runner) Result {
	if _, err := r.newActor(ctx, "rider"); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if _, err := r.newActor(ctx, "driver"); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	return Result{Status: "PASS"}
}

func checkLifecycle(ctx context.Context, r *Runner) Result {
	riderToken, err := r.newActor(ctx, "rider")
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	driverToken, err := r.newActor(ctx, "driver")
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}

	rideID, err := r.createRide(ctx, riderToken)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}

	status, _, err := r.doJSON(ctx, http.MethodPost, "/api/rides/"+rideID+"/accept", driverToken, nil)
	if err != nil || status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("accept status %d err %v", status, err)}
	}

	status, _, _ = r.doJSON(ctx, http.MethodPatch, "/api/driver/location", driverToken,
		map[string]any{"lat": 23.785, "lng": 90.415})
	if status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("location status %d", status)}
	}

	for _, target := range []string{"picked_up", "on_the_way", "finished"} {
		status, _, _ = r.doJSON(ctx, http.MethodPost, "/api/rides/"+rideID+"/advance", driverToken,
			map[string]any{"target": target})
		if status != http.StatusOK {
			return Result{Status: "FAIL", Note: fmt.Sprintf("advance %s status %d", target, status)}
		}
	}

	var snap struct {
		Status         string `json:"status"`
		DriverPosition *struct {
			Lat float64 `json:"lat"`
		} `json:"driver_position"`
	}
	status, body, _ := r.doJSON(ctx, http.MethodGet, "/api/rides/"+rideID, riderToken, nil)
	if status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("get status %d", status)}
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if snap.Status != "finished" || snap.DriverPosition != nil {
		return Result{Status: "FAIL", Note: "finished snapshot must carry no position"}
	}
	return Result{Status: "PASS"}
}

// checkContention races Concurrency drivers for one pending ride and demands
// exactly one winner.
func checkContention(ctx context.Context, r *Runner) Result {
	riderToken, err := r.newActor(ctx, "rider")
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	rideID, err := r.createRide(ctx, riderToken)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}

	tokens := make([]string, r.cfg.Concurrency)
	for i := range tokens {
		if tokens[i], err = r.newActor(ctx, "driver"); err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
	}

	var wg sync.WaitGroup
	statuses := make(chan int, len(tokens))
	start := make(chan struct{})
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			<-start
			status, _, _ := r.doJSON(ctx, http.MethodPost, "/api/rides/"+rideID+"/accept", token, nil)
			statuses <- status
		}(token)
	}
	close(start)
	wg.Wait()
	close(statuses)

	wins, conflicts, other := 0, 0, 0
	for s := range statuses {
		switch s {
		case http.StatusOK:
			wins++
		case http.StatusConflict:
			conflicts++
		default:
			other++
		}
	}
	if wins != 1 || other != 0 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("wins=%d conflicts=%d other=%d", wins, conflicts, other)}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("1 winner, %d conflicts", conflicts)}
}

func checkStaleLocation(ctx context.Context, r *Runner) Result {
	driverToken, err := r.newActor(ctx, "driver")
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}

	newer := time.Now().UTC()
	older := newer.Add(-time.Minute)

	status, _, _ := r.doJSON(ctx, http.MethodPatch, "/api/driver/location", driverToken,
		map[string]any{"lat": 23.78, "lng": 90.42, "observed_at": newer})
	if status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("first update status %d", status)}
	}

	var resp struct {
		Stored bool `json:"stored"`
	}
	status, body, _ := r.doJSON(ctx, http.MethodPatch, "/api/driver/location", driverToken,
		map[string]any{"lat": 0.0, "lng": 0.0, "observed_at": older})
	if status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("stale update status %d", status)}
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if resp.Stored {
		return Result{Status: "FAIL", Note: "stale sample must not overwrite newer one"}
	}
	return Result{Status: "PASS"}
}

// newActor signs up a fresh account for the role and returns a login token.
func (r *Runner) newActor(ctx context.Context, role string) (string, error) {
	email := fmt.Sprintf("bench-%s-%d@example.com", role, time.Now().UnixNano())
	signup := map[string]any{
		"name":     "Bench " + role,
		"email":    email,
		"phone":    "+8801000000000",
		"password": "bench-password",
		"role":     role,
	}
	if role == "driver" {
		signup["license"] = "BENCH-001"
	}
	status, body, err := r.doJSON(ctx, http.MethodPost, "/api/auth/signup", "", signup)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("signup status %d: %s", status, body)
	}

	status, body, err = r.doJSON(ctx, http.MethodPost, "/api/auth/login", "",
		map[string]any{"email": email, "password": "bench-password"})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login status %d: %s", status, body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (r *Runner) createRide(ctx context.Context, riderToken string) (string, error) {
	status, body, err := r.doJSON(ctx, http.MethodPost, "/api/rides", riderToken, map[string]any{
		"pickup":  map[string]any{"lat": 23.78, "lng": 90.42, "label": "Gulshan 1"},
		"dropoff": map[string]any{"lat": 23.77, "lng": 90.40, "label": "Dhanmondi 27"},
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("create ride status %d: %s", status, body)
	}
	var resp struct {
		RideID string `json:"ride_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	return resp.RideID, nil
}

func (r *Runner) doJSON(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return 0, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}
