package location

import (
	"context"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/google/uuid"
)

// ActiveRideResolver is the ride read path, (nil, nil) when the driver has no active ride
type ActiveRideResolver interface {
	ActiveRideForDriver(ctx context.Context, driverID uuid.UUID) (*models.Ride, error)
}

// LocationNotifier delivers the event to the rider, never fails the caller
type LocationNotifier interface {
	DriverLocationChanged(ctx context.Context, riderID uuid.UUID, event models.DriverLocationEvent)
}

type ETACalculator interface {
	ETA(from, to models.Location) int
}

// LocationCache keeps the last known driver position
type LocationCache interface {
	Save(ctx context.Context, loc models.DriverLocation) error
}

// LocationPublisher streams driver positions to telemetry
type LocationPublisher interface {
	Publish(ctx context.Context, loc models.DriverLocation) error
}
