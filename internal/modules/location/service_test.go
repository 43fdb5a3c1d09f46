package location

import (
	"context"
	"sync"
	"testing"
	"time"

	"rideloop/internal/auth"
	"rideloop/internal/types"
)

func testService() *Service {
	return NewService(NewMemoryStore(), nil)
}

func TestReportAndLast(t *testing.T) {
	svc := testService()
	ctx := context.Background()
	driver := auth.Actor{ID: "d1", Role: auth.RoleDriver}

	p := types.Point{Lat: 23.78, Lng: 90.42}
	smp, stored, err := svc.Report(ctx, driver, p, time.Time{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !stored {
		t.Fatal("expected first report to be stored")
	}
	if smp.ObservedAt.IsZero() {
		t.Fatal("expected observed_at to default to now")
	}

	got, ts, ok, err := svc.Last(ctx, "d1")
	if err != nil || !ok {
		t.Fatalf("last: ok=%v err=%v", ok, err)
	}
	if got != p {
		t.Errorf("expected %+v, got %+v", p, got)
	}
	if !ts.Equal(smp.ObservedAt) {
		t.Errorf("expected observed_at %v, got %v", smp.ObservedAt, ts)
	}
}

// Out-of-order delivery: the later-observed sample must win even when it
// arrives first.
func TestOutOfOrderDeliveryKeepsNewest(t *testing.T) {
	svc := testService()
	ctx := context.Background()
	driver := auth.Actor{ID: "d1", Role: auth.RoleDriver}

	t1 := time.Now().Add(-10 * time.Second)
	t2 := t1.Add(5 * time.Second)
	newer := types.Point{Lat: 23.79, Lng: 90.43}
	older := types.Point{Lat: 23.70, Lng: 90.40}

	if _, stored, err := svc.Report(ctx, driver, newer, t2); err != nil || !stored {
		t.Fatalf("report t2: stored=%v err=%v", stored, err)
	}
	_, stored, err := svc.Report(ctx, driver, older, t1)
	if err != nil {
		t.Fatalf("report t1: %v", err)
	}
	if stored {
		t.Error("expected stale sample to be dropped")
	}

	got, ts, ok, err := svc.Last(ctx, "d1")
	if err != nil || !ok {
		t.Fatalf("last: ok=%v err=%v", ok, err)
	}
	if got != newer {
		t.Errorf("expected newest position %+v, got %+v", newer, got)
	}
	if !ts.Equal(t2) {
		t.Errorf("expected observed_at %v, got %v", t2, ts)
	}
}

func TestReportAuthorization(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	rider := auth.Actor{ID: "r1", Role: auth.RoleRider}
	if _, _, err := svc.Report(ctx, rider, types.Point{Lat: 1, Lng: 1}, time.Time{}); err != ErrForbidden {
		t.Errorf("expected ErrForbidden for rider report, got %v", err)
	}
}

func TestReportValidation(t *testing.T) {
	svc := testService()
	ctx := context.Background()
	driver := auth.Actor{ID: "d1", Role: auth.RoleDriver}

	for _, p := range []types.Point{
		{Lat: 91, Lng: 0},
		{Lat: -91, Lng: 0},
		{Lat: 0, Lng: 181},
		{Lat: 0, Lng: -181},
	} {
		if _, _, err := svc.Report(ctx, driver, p, time.Time{}); err != ErrInvalidInput {
			t.Errorf("point %+v: expected ErrInvalidInput, got %v", p, err)
		}
	}
}

func TestConcurrentReportsRetainNewestObserved(t *testing.T) {
	svc := testService()
	ctx := context.Background()
	driver := auth.Actor{ID: "d1", Role: auth.RoleDriver}

	base := time.Now()
	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := types.Point{Lat: float64(i) / 1000, Lng: float64(i) / 1000}
			_, _, _ = svc.Report(ctx, driver, p, base.Add(time.Duration(i)*time.Millisecond))
		}(i)
	}
	wg.Wait()

	_, ts, ok, err := svc.Last(ctx, "d1")
	if err != nil || !ok {
		t.Fatalf("last: ok=%v err=%v", ok, err)
	}
	want := base.Add((n - 1) * time.Millisecond)
	if !ts.Equal(want) {
		t.Errorf("expected newest observed_at %v to win, got %v", want, ts)
	}
}
