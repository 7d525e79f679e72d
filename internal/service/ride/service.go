package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/metrics"
	"github.com/Temutjin2k/ride-realtime/pkg/trm"
	"github.com/google/uuid"
)

// cancel перечитывает поездку при конфликте, но не бесконечно
const cancelAttempts = 3

type RideService struct {
	repo      RideRepo
	trm       trm.TxManager
	events    EventEmitter
	publisher RideStatusPublisher
	fare      FareEstimator
	locations LocationReader
	addresses AddressResolver
	logger    logger.Logger
	now       func() time.Time
}

func NewRideService(repo RideRepo, trm trm.TxManager, events EventEmitter, fare FareEstimator, logger logger.Logger) *RideService {
	return &RideService{
		repo:   repo,
		trm:    trm,
		events: events,
		fare:   fare,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithPublisher enables broker notifications for transitions
func (s *RideService) WithPublisher(p RideStatusPublisher) *RideService {
	s.publisher = p
	return s
}

// WithLocations enables the last known driver position in ride details
func (s *RideService) WithLocations(r LocationReader) *RideService {
	s.locations = r
	return s
}

// WithAddresses fills empty pickup and dropoff addresses on create
func (s *RideService) WithAddresses(r AddressResolver) *RideService {
	s.addresses = r
	return s
}

// Create registers a new PENDING ride. Coordinates are validated by the caller.
func (s *RideService) Create(ctx context.Context, riderID uuid.UUID, pickup models.Location, dropoff *models.Location) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, riderID.String()), types.ActionRideCreate)

	pickup.Address = s.resolveAddress(ctx, pickup)
	if pickup.Address == "" {
		return nil, wrap.Error(ctx, types.ErrAddressRequired)
	}
	if dropoff != nil {
		d := *dropoff
		d.Address = s.resolveAddress(ctx, d)
		dropoff = &d
	}

	ride := &models.Ride{
		ID:        uuid.New(),
		RiderID:   riderID,
		Pickup:    pickup,
		Dropoff:   dropoff,
		Status:    types.StatusPending,
		CreatedAt: s.now(),
	}
	ctx = wrap.WithRideID(ctx, ride.ID.String())

	if err := s.repo.Create(ctx, ride); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: could not create ride: %w", types.ErrDatabaseFailed, err))
	}

	s.logger.Info(ctx, "ride created")
	metrics.RideTransitionsTotal.WithLabelValues(ride.Status.String()).Inc()
	s.publish(ctx, ride)

	return ride, nil
}

// resolveAddress is best effort: a geocoder failure never fails the ride
func (s *RideService) resolveAddress(ctx context.Context, loc models.Location) string {
	if loc.Address != "" || s.addresses == nil {
		return loc.Address
	}

	addr, err := s.addresses.GetAddress(ctx, loc.Longitude, loc.Latitude)
	if err != nil {
		s.logger.Warn(ctx, "failed to resolve address", "error", err.Error())
		return ""
	}
	return addr
}

// Accept assigns the driver to a PENDING ride. Of two concurrent accepts exactly one wins,
// the other gets ErrInvalidTransition.
func (s *RideService) Accept(ctx context.Context, rideID, driverID, vehicleID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithRideID(wrap.WithUserID(ctx, driverID.String()), rideID.String()), types.ActionRideAccept)

	return s.transition(ctx, types.StatusAccepted,
		func(ctx context.Context) (*models.Ride, error) { return s.repo.Get(ctx, rideID) },
		func(r *models.Ride, now time.Time) {
			r.DriverID = &driverID
			r.VehicleID = &vehicleID
			r.AcceptedAt = &now
		},
	)
}

// Start moves an ACCEPTED ride owned by driverID to IN_PROGRESS.
// A ride of another driver is reported as ErrRideNotFound.
func (s *RideService) Start(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithRideID(wrap.WithUserID(ctx, driverID.String()), rideID.String()), types.ActionRideStart)

	return s.transition(ctx, types.StatusInProgress,
		func(ctx context.Context) (*models.Ride, error) { return s.repo.GetByDriver(ctx, rideID, driverID) },
		func(r *models.Ride, now time.Time) { r.StartedAt = &now },
	)
}

// Complete moves an IN_PROGRESS ride owned by driverID to COMPLETED
func (s *RideService) Complete(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithRideID(wrap.WithUserID(ctx, driverID.String()), rideID.String()), types.ActionRideComplete)

	return s.transition(ctx, types.StatusCompleted,
		func(ctx context.Context) (*models.Ride, error) { return s.repo.GetByDriver(ctx, rideID, driverID) },
		func(r *models.Ride, now time.Time) { r.CompletedAt = &now },
	)
}

// transition: load -> check -> conditional write, in one transaction.
// Zero updated rows means a concurrent writer won.
func (s *RideService) transition(
	ctx context.Context,
	next types.RideStatus,
	load func(ctx context.Context) (*models.Ride, error),
	apply func(r *models.Ride, now time.Time),
) (*models.Ride, error) {
	var updated *models.Ride

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		ride, err := load(ctx)
		if err != nil {
			return repoErr(err)
		}

		prev := ride.Status
		if !prev.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, prev, next)
		}

		ride.Status = next
		apply(ride, s.now())

		if err := s.repo.UpdateIfStatus(ctx, ride, prev); err != nil {
			if errors.Is(err, types.ErrStatusConflict) {
				metrics.RideTransitionConflicts.WithLabelValues(next.String()).Inc()
				return fmt.Errorf("%w: status changed concurrently", types.ErrInvalidTransition)
			}
			return repoErr(err)
		}

		updated = ride
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.afterTransition(ctx, updated)
	return updated, nil
}

// Cancel cancels a non-terminal ride on behalf of its rider or assigned driver.
// Checks go in order: existence, terminal status, ownership.
func (s *RideService) Cancel(ctx context.Context, rideID, actorID uuid.UUID, actorIsRider bool, reason string) (*models.Ride, error) {
	ctx = wrap.WithAction(wrap.WithRideID(wrap.WithUserID(ctx, actorID.String()), rideID.String()), types.ActionRideCancel)

	actor := types.CancelledByDriver
	if actorIsRider {
		actor = types.CancelledByRider
	}

	for attempt := 1; attempt <= cancelAttempts; attempt++ {
		var cancelled *models.Ride

		err := s.trm.Do(ctx, func(ctx context.Context) error {
			ride, err := s.repo.Get(ctx, rideID)
			if err != nil {
				return repoErr(err)
			}

			if ride.Status.IsTerminal() {
				return fmt.Errorf("%w: status %s", types.ErrAlreadyTerminal, ride.Status)
			}

			owner := ride.RiderID == actorID
			if !actorIsRider {
				owner = ride.IsDriver(actorID)
			}
			if !owner {
				return types.ErrNotOwner
			}

			prev := ride.Status
			now := s.now()
			ride.Status = types.StatusCancelled
			ride.CancelledBy = &actor
			ride.CancellationReason = &reason
			ride.CancelledAt = &now

			if err := s.repo.UpdateIfStatus(ctx, ride, prev); err != nil {
				if errors.Is(err, types.ErrStatusConflict) {
					return types.ErrStatusConflict
				}
				return repoErr(err)
			}

			cancelled = ride
			return nil
		})

		if errors.Is(err, types.ErrStatusConflict) {
			// статус поменялся между чтением и записью, перечитываем
			metrics.RideTransitionConflicts.WithLabelValues(types.StatusCancelled.String()).Inc()
			s.logger.Debug(ctx, "cancel lost a race, re-reading ride", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}

		s.afterTransition(ctx, cancelled)
		return cancelled, nil
	}

	return nil, wrap.Error(ctx, fmt.Errorf("%w: ride kept changing during cancel", types.ErrInvalidTransition))
}

// afterTransition runs only after the write is durable; nothing here can fail the transition
func (s *RideService) afterTransition(ctx context.Context, ride *models.Ride) {
	s.logger.Info(ctx, "ride status changed", "status", ride.Status.String())
	metrics.RideTransitionsTotal.WithLabelValues(ride.Status.String()).Inc()

	if s.events != nil {
		s.events.RideStatusChanged(ctx, ride.Clone())
	}
	s.publish(ctx, ride)
}

func (s *RideService) publish(ctx context.Context, ride *models.Ride) {
	if s.publisher == nil {
		return
	}

	msg := models.RideStatusMessage{
		RideID:        ride.ID,
		Status:        ride.Status,
		RiderID:       ride.RiderID,
		DriverID:      ride.DriverID,
		CancelledBy:   ride.CancelledBy,
		Timestamp:     s.now(),
		CorrelationID: wrap.GetRequestID(ctx),
	}

	if err := s.publisher.PublishRideStatus(ctx, msg); err != nil {
		s.logger.Warn(wrap.WithAction(ctx, types.ActionExternalServiceFailed),
			"failed to publish ride status", "status", ride.Status.String(), "error", err.Error())
	}
}

// repoErr keeps ErrRideNotFound as is and marks everything else as a database fault
func repoErr(err error) error {
	if errors.Is(err, types.ErrRideNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", types.ErrDatabaseFailed, err)
}
