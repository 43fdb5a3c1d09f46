// README: Location store backed by Redis (hash per driver + GEO index).
package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"rideloop/internal/types"
)

const geoKey = "geo:drivers"

// upsertScript applies the last-writer-wins guard server-side so concurrent
// reports for the same driver cannot interleave between read and write.
var upsertScript = redis.NewScript(`
local prev = redis.call('HGET', KEYS[1], 'observed_ms')
if prev and tonumber(prev) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'observed_ms', ARGV[1], 'lat', ARGV[2], 'lng', ARGV[3])
return 1
`)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Upsert(ctx context.Context, smp Sample) (bool, error) {
	res, err := upsertScript.Run(ctx, s.client,
		[]string{sampleKey(smp.DriverID)},
		smp.ObservedAt.UnixMilli(),
		smp.Point.Lat,
		smp.Point.Lng,
	).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res != 1 {
		return false, nil
	}
	// GEO index is best-effort; the hash above is authoritative for reads.
	_ = s.client.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      string(smp.DriverID),
		Longitude: smp.Point.Lng,
		Latitude:  smp.Point.Lat,
	}).Err()
	return true, nil
}

func (s *RedisStore) Last(ctx context.Context, driverID types.ID) (Sample, bool, error) {
	m, err := s.client.HGetAll(ctx, sampleKey(driverID)).Result()
	if err != nil {
		return Sample{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(m) == 0 {
		return Sample{}, false, nil
	}
	ms, err := strconv.ParseInt(m["observed_ms"], 10, 64)
	if err != nil {
		return Sample{}, false, fmt.Errorf("%w: corrupt observed_ms", ErrUnavailable)
	}
	lat, err1 := strconv.ParseFloat(m["lat"], 64)
	lng, err2 := strconv.ParseFloat(m["lng"], 64)
	if err1 != nil || err2 != nil {
		return Sample{}, false, fmt.Errorf("%w: corrupt coordinates", ErrUnavailable)
	}
	return Sample{
		DriverID:   driverID,
		Point:      types.Point{Lat: lat, Lng: lng},
		ObservedAt: time.UnixMilli(ms),
	}, true, nil
}

func sampleKey(driverID types.ID) string {
	return "driver:" + string(driverID) + ":location"
}
