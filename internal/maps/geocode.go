// README: Reverse geocoding for route labels via the Google Maps API.
package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"rideloop/internal/types"
)

// GeocodeService resolves human-readable labels for coordinates. It backs the
// optional ride.Geocoder; ride creation works without it.
type GeocodeService struct {
	client *maps.Client
}

func NewGeocodeService(apiKey string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client}, nil
}

// Label returns the formatted address of the first reverse-geocode result.
func (s *GeocodeService) Label(ctx context.Context, p types.Point) (string, error) {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil {
		return "", fmt.Errorf("geocode api error: %w", err)
	}
	if len(results) == 0 {
		return "", errors.New("no geocode result")
	}
	return results[0].FormattedAddress, nil
}
