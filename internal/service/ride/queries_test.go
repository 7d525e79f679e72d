package ride

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/google/uuid"
)

type stubLocations struct {
	loc *models.DriverLocation
	err error
}

func (s stubLocations) Get(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	return s.loc, s.err
}

func TestRideService_ActiveRideForDriver(t *testing.T) {
	ctx := context.Background()
	driver := uuid.New()
	base := time.Now()

	seed := func(f *fixture, status types.RideStatus, at time.Time) *models.Ride {
		r := &models.Ride{
			ID: uuid.New(), RiderID: uuid.New(), Pickup: pickup,
			Status: status, DriverID: &driver, CreatedAt: at,
		}
		if err := f.repo.Create(ctx, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
		return r
	}

	t.Run("none", func(t *testing.T) {
		f := newFixture()
		seed(f, types.StatusCompleted, base)
		got, err := f.svc.ActiveRideForDriver(ctx, driver)
		if err != nil || got != nil {
			t.Fatalf("got %v, %v; want nil, nil", got, err)
		}
	})

	t.Run("prefers in progress", func(t *testing.T) {
		f := newFixture()
		inProgress := seed(f, types.StatusInProgress, base.Add(-time.Hour))
		seed(f, types.StatusAccepted, base)

		got, err := f.svc.ActiveRideForDriver(ctx, driver)
		if err != nil {
			t.Fatalf("ActiveRideForDriver: %v", err)
		}
		if got.ID != inProgress.ID {
			t.Fatalf("chose %s, want the IN_PROGRESS ride", got.Status)
		}
	})

	t.Run("newest accepted", func(t *testing.T) {
		f := newFixture()
		seed(f, types.StatusAccepted, base.Add(-time.Hour))
		newest := seed(f, types.StatusAccepted, base)

		got, _ := f.svc.ActiveRideForDriver(ctx, driver)
		if got == nil || got.ID != newest.ID {
			t.Fatalf("got %+v, want newest accepted ride", got)
		}
	})
}

func TestRideService_GetVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rider, driver := uuid.New(), uuid.New()
	ride := f.create(t, rider)

	tests := []struct {
		name string
		who  models.Identity
		ok   bool
	}{
		{"owner rider", models.Identity{UserID: rider, Role: types.RiderRole}, true},
		{"other rider", models.Identity{UserID: uuid.New(), Role: types.RiderRole}, false},
		{"any driver sees open ride", models.Identity{UserID: driver, Role: types.DriverRole}, true},
		{"admin", models.Identity{UserID: uuid.New(), Role: types.AdminRole}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Get(ctx, ride.ID, tt.who)
			if tt.ok && err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !tt.ok && !errors.Is(err, types.ErrRideNotFound) {
				t.Fatalf("got %v, want ErrRideNotFound", err)
			}
		})
	}

	_, _ = f.svc.Accept(ctx, ride.ID, driver, uuid.New())
	if _, err := f.svc.Get(ctx, ride.ID, models.Identity{UserID: uuid.New(), Role: types.DriverRole}); !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("other driver after accept: got %v, want ErrRideNotFound", err)
	}
}

func TestRideService_GetDetails(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rider, driver := uuid.New(), uuid.New()
	loc := &models.DriverLocation{DriverID: driver, Latitude: 40.75, Longitude: -73.98}
	f.svc.WithLocations(stubLocations{loc: loc})

	ride := f.create(t, rider)
	_, _ = f.svc.Accept(ctx, ride.ID, driver, uuid.New())

	d, err := f.svc.Get(ctx, ride.ID, models.Identity{UserID: rider, Role: types.RiderRole})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Fare != 0 {
		t.Fatalf("fare = %v before completion, want 0", d.Fare)
	}
	if d.EstimatedFare <= 0 || d.DistanceKm <= 0 {
		t.Fatalf("estimate missing: %+v", d)
	}
	if d.DriverLocation != loc {
		t.Fatal("driver location not attached")
	}

	// ошибка кэша не ломает ответ
	f.svc.WithLocations(stubLocations{err: errors.New("redis down")})
	if d, err := f.svc.Get(ctx, ride.ID, models.Identity{UserID: rider, Role: types.RiderRole}); err != nil || d.DriverLocation != nil {
		t.Fatalf("got %+v, %v", d, err)
	}
}

func TestRideService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rider, driver := uuid.New(), uuid.New()

	mine := f.create(t, rider)
	f.create(t, rider)
	f.create(t, uuid.New())
	_, _ = f.svc.Accept(ctx, mine.ID, driver, uuid.New())

	got, err := f.svc.List(ctx, models.Identity{UserID: rider, Role: types.RiderRole}, models.RideFilter{})
	if err != nil || len(got) != 2 {
		t.Fatalf("rider list: %d rides, err %v; want 2", len(got), err)
	}

	got, _ = f.svc.List(ctx, models.Identity{UserID: driver, Role: types.DriverRole}, models.RideFilter{})
	if len(got) != 1 || got[0].Ride.ID != mine.ID {
		t.Fatalf("driver list: %+v", got)
	}

	pending := types.StatusPending
	got, _ = f.svc.List(ctx, models.Identity{UserID: driver, Role: types.DriverRole}, models.RideFilter{Status: &pending})
	if len(got) != 2 {
		t.Fatalf("open rides: %d, want 2", len(got))
	}

	// подмена фильтра чужим rider_id игнорируется
	other := uuid.New()
	got, _ = f.svc.List(ctx, models.Identity{UserID: rider, Role: types.RiderRole}, models.RideFilter{RiderID: &other})
	if len(got) != 2 {
		t.Fatalf("rider filter override leaked: %d rides", len(got))
	}
}
