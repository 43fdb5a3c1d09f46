// README: Shared value objects used across modules.
package types

type ID string

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is a plausible WGS84 coordinate.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Place is a trip endpoint: coordinates plus the label shown to clients.
type Place struct {
	Point
	Label string `json:"label"`
}
