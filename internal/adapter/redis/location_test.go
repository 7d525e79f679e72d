package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
)

func TestEncodeDecodeLocation(t *testing.T) {
	driverID := uuid.New()
	rideID := uuid.New()
	ts := time.Date(2024, 12, 16, 10, 40, 0, 123, time.UTC)

	in := models.DriverLocation{
		DriverID:  driverID,
		RideID:    &rideID,
		Latitude:  40.712776,
		Longitude: -74.005974,
		Timestamp: ts,
	}

	fields := make(map[string]string)
	for k, v := range encodeLocation(in) {
		fields[k] = v.(string)
	}

	out, err := decodeLocation(driverID, fields)
	if err != nil {
		t.Fatal(err)
	}
	if out.Latitude != in.Latitude || out.Longitude != in.Longitude {
		t.Errorf("coords = %v,%v", out.Latitude, out.Longitude)
	}
	if out.RideID == nil || *out.RideID != rideID {
		t.Errorf("ride id = %v", out.RideID)
	}
	if !out.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v", out.Timestamp)
	}
}

func TestDecodeLocation_NoRide(t *testing.T) {
	out, err := decodeLocation(uuid.New(), map[string]string{"lat": "1.5", "lng": "2.5", "ride_id": ""})
	if err != nil {
		t.Fatal(err)
	}
	if out.RideID != nil {
		t.Errorf("ride id = %v, want nil", out.RideID)
	}
}

func TestDecodeLocation_Broken(t *testing.T) {
	if _, err := decodeLocation(uuid.New(), map[string]string{"lat": "1"}); !errors.Is(err, errIncompleteLocation) {
		t.Errorf("err = %v, want errIncompleteLocation", err)
	}
	if _, err := decodeLocation(uuid.New(), map[string]string{"lat": "x", "lng": "1"}); err == nil {
		t.Error("expected parse error")
	}
}
