package ride

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Get returns ride details visible to the requester. Rides the requester can't see are
// reported as ErrRideNotFound, same as missing ones.
func (s *RideService) Get(ctx context.Context, rideID uuid.UUID, who models.Identity) (*models.RideDetails, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID.String()), types.ActionRideGet)

	ride, err := s.repo.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, repoErr(err))
	}

	if !canView(ride, who) {
		return nil, wrap.Error(ctx, types.ErrRideNotFound)
	}

	return s.details(ctx, ride), nil
}

// canView: rider and assigned driver see their ride, any driver sees open rides, admin sees all
func canView(ride *models.Ride, who models.Identity) bool {
	switch who.Role {
	case types.AdminRole:
		return true
	case types.RiderRole:
		return ride.RiderID == who.UserID
	case types.DriverRole:
		return ride.IsDriver(who.UserID) || (ride.Status == types.StatusPending && ride.DriverID == nil)
	}
	return false
}

// Details computes fare and distance for a ride. Fare is 0 until the ride is COMPLETED.
func (s *RideService) Details(ride *models.Ride) *models.RideDetails {
	d := &models.RideDetails{Ride: ride}
	if ride.Dropoff == nil || s.fare == nil {
		return d
	}

	d.DistanceKm = s.fare.Distance(ride.Pickup, *ride.Dropoff)
	d.EstimatedFare = s.fare.Fare(ride.Pickup, *ride.Dropoff)
	if ride.Status == types.StatusCompleted {
		d.Fare = d.EstimatedFare
	}
	return d
}

func (s *RideService) details(ctx context.Context, ride *models.Ride) *models.RideDetails {
	d := s.Details(ride)

	if s.locations == nil || ride.DriverID == nil || ride.Status.IsTerminal() {
		return d
	}

	loc, err := s.locations.Get(ctx, *ride.DriverID)
	if err != nil {
		// кэш локаций не обязателен для ответа
		s.logger.Warn(ctx, "failed to read driver location", "error", err.Error())
		return d
	}
	d.DriverLocation = loc
	return d
}

// List returns rides of the requester: riders see their own rides, drivers see rides
// assigned to them or, with status PENDING, the open ones. Admin sees everything.
func (s *RideService) List(ctx context.Context, who models.Identity, filter models.RideFilter) ([]*models.RideDetails, error) {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, who.UserID.String()), types.ActionRideList)

	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	filter.RiderID, filter.DriverID = nil, nil
	switch who.Role {
	case types.RiderRole:
		filter.RiderID = &who.UserID
	case types.DriverRole:
		if filter.Status == nil || *filter.Status != types.StatusPending {
			filter.DriverID = &who.UserID
		}
	case types.AdminRole:
	default:
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	rides, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrDatabaseFailed, err))
	}

	out := make([]*models.RideDetails, 0, len(rides))
	for _, r := range rides {
		out = append(out, s.Details(r))
	}
	return out, nil
}

// ActiveRideForDriver resolves the ride the driver is currently serving: IN_PROGRESS
// first, otherwise the newest ACCEPTED. More than one active ride breaks an invariant;
// it is logged with all ride ids and the preferred ride is still returned.
// No active ride returns (nil, nil).
func (s *RideService) ActiveRideForDriver(ctx context.Context, driverID uuid.UUID) (*models.Ride, error) {
	rides, err := s.repo.FindActiveByDriver(ctx, driverID, types.ActiveStatuses...)
	if err != nil {
		if errors.Is(err, types.ErrRideNotFound) {
			return nil, nil
		}
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrDatabaseFailed, err))
	}
	if len(rides) == 0 {
		return nil, nil
	}

	var chosen *models.Ride
	for _, r := range rides {
		if r.Status == types.StatusInProgress {
			chosen = r
			break
		}
	}
	if chosen == nil {
		// rides отсортированы от новых к старым
		chosen = rides[0]
	}

	if len(rides) > 1 {
		ids := make([]string, 0, len(rides))
		for _, r := range rides {
			ids = append(ids, r.ID.String()+":"+r.Status.String())
		}
		s.logger.Warn(wrap.WithAction(ctx, types.ActionInvariantViolate),
			"driver has more than one active ride",
			"driver_id", driverID.String(),
			"rides", ids,
			"chosen_ride_id", chosen.ID.String(),
		)
	}

	return chosen, nil
}
