package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
)

const (
	defaultGeoKey = "drivers:locations"
	defaultTTL    = 10 * time.Minute
)

var errIncompleteLocation = errors.New("incomplete location record")

// LocationStore keeps the last known position of every driver: a GEO set for
// spatial lookups and a hash per driver with the exact values and the ride.
type LocationStore struct {
	client *redis.Client
	geoKey string
	ttl    time.Duration
}

func NewLocationStore(client *redis.Client, geoKey string, ttl time.Duration) *LocationStore {
	if geoKey == "" {
		geoKey = defaultGeoKey
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LocationStore{client: client, geoKey: geoKey, ttl: ttl}
}

// Save stores the position with GEOADD and HSET in one MULTI block
func (s *LocationStore) Save(ctx context.Context, loc models.DriverLocation) error {
	id := loc.DriverID.String()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, s.geoKey, &redis.GeoLocation{
			Name:      id,
			Longitude: loc.Longitude,
			Latitude:  loc.Latitude,
		})
		pipe.HSet(ctx, metaKey(id), encodeLocation(loc))
		pipe.Expire(ctx, metaKey(id), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save driver location: %w", err)
	}
	return nil
}

// Get returns nil when nothing is cached for the driver or the entry expired
func (s *LocationStore) Get(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	fields, err := s.client.HGetAll(ctx, metaKey(driverID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get driver location: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	loc, err := decodeLocation(driverID, fields)
	if err != nil {
		return nil, fmt.Errorf("redis: decode driver location: %w", err)
	}
	return loc, nil
}

// Remove drops the driver from the geo set and deletes the hash
func (s *LocationStore) Remove(ctx context.Context, driverID uuid.UUID) error {
	id := driverID.String()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.geoKey, id)
		pipe.Del(ctx, metaKey(id))
		return nil
	})
	return err
}

func metaKey(id string) string { return "driver:location:" + id }

func encodeLocation(loc models.DriverLocation) map[string]any {
	m := map[string]any{
		"lat":       strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		"lng":       strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
		"timestamp": loc.Timestamp.UTC().Format(time.RFC3339Nano),
		"ride_id":   "",
	}
	if loc.RideID != nil {
		m["ride_id"] = loc.RideID.String()
	}
	return m
}

func decodeLocation(driverID uuid.UUID, fields map[string]string) (*models.DriverLocation, error) {
	latRaw, okLat := fields["lat"]
	lngRaw, okLng := fields["lng"]
	if !okLat || !okLng {
		return nil, errIncompleteLocation
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, fmt.Errorf("lng: %w", err)
	}

	loc := &models.DriverLocation{
		DriverID:  driverID,
		Latitude:  lat,
		Longitude: lng,
	}

	if ts := fields["timestamp"]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			loc.Timestamp = t
		}
	}
	if raw := fields["ride_id"]; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			loc.RideID = &id
		}
	}
	return loc, nil
}
