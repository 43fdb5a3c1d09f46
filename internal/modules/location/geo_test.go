package location

import (
	"math"
	"testing"

	"rideloop/internal/types"
)

func TestDistanceKmZero(t *testing.T) {
	p := types.Point{Lat: 23.78, Lng: 90.42}
	if d := DistanceKm(p, p); d != 0 {
		t.Errorf("expected zero distance, got %f", d)
	}
}

func TestDistanceKmKnownPair(t *testing.T) {
	// Dhaka city centre to the airport, roughly 17 km.
	a := types.Point{Lat: 23.7104, Lng: 90.4074}
	b := types.Point{Lat: 23.8513, Lng: 90.4008}
	d := DistanceKm(a, b)
	if d < 15 || d > 17 {
		t.Errorf("expected ~15.7 km, got %f", d)
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := types.Point{Lat: 23.78, Lng: 90.42}
	b := types.Point{Lat: 23.77, Lng: 90.40}
	if math.Abs(DistanceKm(a, b)-DistanceKm(b, a)) > 1e-9 {
		t.Error("expected distance to be symmetric")
	}
}
