package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/google/uuid"
)

var ErrDuplicateRide = errors.New("ride with this id already exists")

// RideRepo is an in-process ride store for development and tests.
// UpdateIfStatus checks and writes under one lock, which gives the same
// per-ride atomicity as the conditional UPDATE in postgres.
type RideRepo struct {
	mu    sync.RWMutex
	rides map[uuid.UUID]*models.Ride
}

func NewRideRepo() *RideRepo {
	return &RideRepo{rides: make(map[uuid.UUID]*models.Ride)}
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rides[ride.ID]; ok {
		return ErrDuplicateRide
	}
	r.rides[ride.ID] = ride.Clone()
	return nil
}

// Get returns a copy, callers may mutate it freely
func (r *RideRepo) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ride, ok := r.rides[rideID]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	return ride.Clone(), nil
}

func (r *RideRepo) GetByDriver(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ride, ok := r.rides[rideID]
	if !ok || !ride.IsDriver(driverID) {
		return nil, types.ErrRideNotFound
	}
	return ride.Clone(), nil
}

func (r *RideRepo) UpdateIfStatus(ctx context.Context, ride *models.Ride, expected types.RideStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.rides[ride.ID]
	if !ok {
		return types.ErrRideNotFound
	}
	if cur.Status != expected {
		return types.ErrStatusConflict
	}

	r.rides[ride.ID] = ride.Clone()
	return nil
}

func (r *RideRepo) FindActiveByDriver(ctx context.Context, driverID uuid.UUID, statuses ...types.RideStatus) ([]*models.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Ride
	for _, ride := range r.rides {
		if ride.IsDriver(driverID) && slices.Contains(statuses, ride.Status) {
			out = append(out, ride.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *RideRepo) List(ctx context.Context, filter models.RideFilter) ([]*models.Ride, error) {
	r.mu.RLock()
	var out []*models.Ride
	for _, ride := range r.rides {
		if matches(ride, filter) {
			out = append(out, ride.Clone())
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(out)

	if filter.Offset >= len(out) {
		return []*models.Ride{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(ride *models.Ride, f models.RideFilter) bool {
	if f.RiderID != nil && ride.RiderID != *f.RiderID {
		return false
	}
	if f.DriverID != nil && !ride.IsDriver(*f.DriverID) {
		return false
	}
	if f.Status != nil && ride.Status != *f.Status {
		return false
	}
	return true
}

func sortNewestFirst(rides []*models.Ride) {
	slices.SortFunc(rides, func(a, b *models.Ride) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// Len is used by tests
func (r *RideRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rides)
}
