package ride

import (
	"context"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/google/uuid"
)

// RideRepo is the durable ride store. Missing rides are reported as types.ErrRideNotFound.
// Inside a trm transaction Get and GetByDriver lock the row.
type RideRepo interface {
	Create(ctx context.Context, ride *models.Ride) error
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	GetByDriver(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)

	// UpdateIfStatus persists ride only if the stored status still equals expected,
	// otherwise returns types.ErrStatusConflict.
	UpdateIfStatus(ctx context.Context, ride *models.Ride, expected types.RideStatus) error

	// FindActiveByDriver returns rides of the driver in the given statuses, newest first
	FindActiveByDriver(ctx context.Context, driverID uuid.UUID, statuses ...types.RideStatus) ([]*models.Ride, error)
	List(ctx context.Context, filter models.RideFilter) ([]*models.Ride, error)
}

// EventEmitter delivers realtime notifications. It never fails the caller.
type EventEmitter interface {
	RideStatusChanged(ctx context.Context, ride *models.Ride)
}

// RideStatusPublisher forwards transitions to the message broker
type RideStatusPublisher interface {
	PublishRideStatus(ctx context.Context, msg models.RideStatusMessage) error
}

type FareEstimator interface {
	Distance(p1, p2 models.Location) float64
	Fare(pickup, dropoff models.Location) float64
}

// LocationReader returns the last known driver position, nil when unknown
type LocationReader interface {
	Get(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error)
}

// AddressResolver reverse-geocodes coordinates into a display address
type AddressResolver interface {
	GetAddress(ctx context.Context, longitude, latitude float64) (string, error)
}
