package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/metrics"
	"github.com/Temutjin2k/ride-realtime/pkg/postgres"
)

const rideColumns = `
	id, rider_id, driver_id, vehicle_id, status,
	pickup_latitude, pickup_longitude, pickup_address,
	dropoff_latitude, dropoff_longitude, dropoff_address,
	cancelled_by, cancellation_reason,
	created_at, accepted_at, started_at, completed_at, cancelled_at`

type RideRepo struct {
	db      *pgxpool.Pool
	service string
}

func NewRideRepo(db *pgxpool.Pool, serviceName string) *RideRepo {
	return &RideRepo{db: db, service: serviceName}
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) (err error) {
	const op = "rideRepo.Create"
	defer r.observe(op, time.Now(), &err)

	var dropLat, dropLng *float64
	var dropAddr *string
	if ride.Dropoff != nil {
		dropLat, dropLng, dropAddr = &ride.Dropoff.Latitude, &ride.Dropoff.Longitude, &ride.Dropoff.Address
	}

	query := `
		INSERT INTO rides (
			id, rider_id, status,
			pickup_latitude, pickup_longitude, pickup_address,
			dropoff_latitude, dropoff_longitude, dropoff_address,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	_, err = TxorDB(ctx, r.db).Exec(ctx, query,
		ride.ID, ride.RiderID, ride.Status.String(),
		ride.Pickup.Latitude, ride.Pickup.Longitude, ride.Pickup.Address,
		dropLat, dropLng, dropAddr,
		ride.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%s: ride %s already exists: %w", op, ride.ID, err)
		}
		return wrap.Error(wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed), fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// Get внутри транзакции блокирует строку до коммита
func (r *RideRepo) Get(ctx context.Context, rideID uuid.UUID) (_ *models.Ride, err error) {
	const op = "rideRepo.Get"
	defer r.observe(op, time.Now(), &err)

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1` + r.lockClause(ctx)

	ride, err := scanRide(TxorDB(ctx, r.db).QueryRow(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ride, nil
}

// GetByDriver returns the ride only if driverID is its assigned driver
func (r *RideRepo) GetByDriver(ctx context.Context, rideID, driverID uuid.UUID) (_ *models.Ride, err error) {
	const op = "rideRepo.GetByDriver"
	defer r.observe(op, time.Now(), &err)

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 AND driver_id = $2` + r.lockClause(ctx)

	ride, err := scanRide(TxorDB(ctx, r.db).QueryRow(ctx, query, rideID, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ride, nil
}

// UpdateIfStatus is a compare-and-set on status, the row is written only if
// nobody has moved it since it was read.
func (r *RideRepo) UpdateIfStatus(ctx context.Context, ride *models.Ride, expected types.RideStatus) (err error) {
	const op = "rideRepo.UpdateIfStatus"
	defer r.observe(op, time.Now(), &err)

	query := `
		UPDATE rides
		SET
			status = $3,
			driver_id = $4,
			vehicle_id = $5,
			cancelled_by = $6,
			cancellation_reason = $7,
			accepted_at = $8,
			started_at = $9,
			completed_at = $10,
			cancelled_at = $11,
			updated_at = now()
		WHERE id = $1 AND status = $2;`

	q := TxorDB(ctx, r.db)
	tag, err := q.Exec(ctx, query,
		ride.ID,
		expected.String(),
		ride.Status.String(),
		ride.DriverID,
		ride.VehicleID,
		actorText(ride.CancelledBy),
		ride.CancellationReason,
		ride.AcceptedAt,
		ride.StartedAt,
		ride.CompletedAt,
		ride.CancelledAt,
	)
	if err != nil {
		if postgres.IsCheckViolation(err) {
			return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrInvalidStatus))
		}
		return wrap.Error(wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed), fmt.Errorf("%s: %w", op, err))
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	// 0 строк: либо поездки нет, либо статус уже сменился
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1);`, ride.ID).Scan(&exists); err != nil {
		return fmt.Errorf("%s: check existence: %w", op, err)
	}
	if !exists {
		return types.ErrRideNotFound
	}
	return types.ErrStatusConflict
}

func (r *RideRepo) FindActiveByDriver(ctx context.Context, driverID uuid.UUID, statuses ...types.RideStatus) (_ []*models.Ride, err error) {
	const op = "rideRepo.FindActiveByDriver"
	defer r.observe(op, time.Now(), &err)

	if len(statuses) == 0 {
		return nil, nil
	}

	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}

	query := `SELECT ` + rideColumns + `
		FROM rides
		WHERE driver_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, driverID, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out, err := collectRides(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *RideRepo) List(ctx context.Context, filter models.RideFilter) (_ []*models.Ride, err error) {
	const op = "rideRepo.List"
	defer r.observe(op, time.Now(), &err)

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.RiderID != nil {
		where = append(where, "rider_id = "+arg(*filter.RiderID))
	}
	if filter.DriverID != nil {
		where = append(where, "driver_id = "+arg(*filter.DriverID))
	}
	if filter.Status != nil {
		where = append(where, "status = "+arg(filter.Status.String()))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + rideColumns + ` FROM rides`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		b.WriteString(" OFFSET " + arg(filter.Offset))
	}

	rows, err := TxorDB(ctx, r.db).Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out, err := collectRides(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *RideRepo) lockClause(ctx context.Context) string {
	if inTx(ctx) {
		return " FOR UPDATE"
	}
	return ""
}

func (r *RideRepo) observe(op string, start time.Time, err *error) {
	var e error
	if err != nil && !errors.Is(*err, types.ErrRideNotFound) && !errors.Is(*err, types.ErrStatusConflict) {
		e = *err
	}
	metrics.RecordDatabaseQuery(r.service, op, e, time.Since(start))
}

func actorText(a *types.CancelActor) *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}

func collectRides(rows pgx.Rows) ([]*models.Ride, error) {
	out := make([]*models.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ride)
	}
	return out, rows.Err()
}

func scanRide(row pgx.Row) (*models.Ride, error) {
	var (
		ride        models.Ride
		status      string
		pickupAddr  *string
		dropLat     *float64
		dropLng     *float64
		dropAddr    *string
		cancelledBy *string
	)

	err := row.Scan(
		&ride.ID, &ride.RiderID, &ride.DriverID, &ride.VehicleID, &status,
		&ride.Pickup.Latitude, &ride.Pickup.Longitude, &pickupAddr,
		&dropLat, &dropLng, &dropAddr,
		&cancelledBy, &ride.CancellationReason,
		&ride.CreatedAt, &ride.AcceptedAt, &ride.StartedAt, &ride.CompletedAt, &ride.CancelledAt,
	)
	if err != nil {
		return nil, err
	}

	ride.Status = types.RideStatus(status)
	if pickupAddr != nil {
		ride.Pickup.Address = *pickupAddr
	}
	if dropLat != nil && dropLng != nil {
		ride.Dropoff = &models.Location{Latitude: *dropLat, Longitude: *dropLng}
		if dropAddr != nil {
			ride.Dropoff.Address = *dropAddr
		}
	}
	if cancelledBy != nil {
		actor := types.CancelActor(*cancelledBy)
		ride.CancelledBy = &actor
	}
	return &ride, nil
}
