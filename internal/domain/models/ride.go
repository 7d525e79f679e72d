package models

import (
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/google/uuid"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Ride: одна поездка. Меняется только через операции жизненного цикла.
type Ride struct {
	ID        uuid.UUID
	RiderID   uuid.UUID
	DriverID  *uuid.UUID // nil до ACCEPTED, после не сбрасывается
	VehicleID *uuid.UUID
	Pickup    Location
	Dropoff   *Location
	Status    types.RideStatus

	// Причина отмены, есть только у отмененных поездок
	CancelledBy        *types.CancelActor
	CancellationReason *string

	// Временные метки
	CreatedAt   time.Time
	AcceptedAt  *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Clone returns a deep copy, storages hand out copies so callers can't mutate shared state
func (r *Ride) Clone() *Ride {
	if r == nil {
		return nil
	}
	c := *r
	c.DriverID = clonePtr(r.DriverID)
	c.VehicleID = clonePtr(r.VehicleID)
	c.Dropoff = clonePtr(r.Dropoff)
	c.CancelledBy = clonePtr(r.CancelledBy)
	c.CancellationReason = clonePtr(r.CancellationReason)
	c.AcceptedAt = clonePtr(r.AcceptedAt)
	c.StartedAt = clonePtr(r.StartedAt)
	c.CompletedAt = clonePtr(r.CompletedAt)
	c.CancelledAt = clonePtr(r.CancelledAt)
	return &c
}

// IsDriver reports whether id is the assigned driver
func (r *Ride) IsDriver(id uuid.UUID) bool {
	return r.DriverID != nil && *r.DriverID == id
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RideDetails is a ride with its computed fare and the last known driver position
type RideDetails struct {
	Ride           *Ride
	EstimatedFare  float64
	Fare           float64 // 0 until COMPLETED
	DistanceKm     float64
	DriverLocation *DriverLocation
}

// RideFilter for list queries, nil fields are not filtered on. Newest rides first.
type RideFilter struct {
	RiderID  *uuid.UUID
	DriverID *uuid.UUID
	Status   *types.RideStatus
	Limit    int
	Offset   int
}

/* ======================= rabbitmq ======================= */

type RideStatusMessage struct {
	RideID        uuid.UUID          `json:"ride_id"`
	Status        types.RideStatus   `json:"status"`
	RiderID       uuid.UUID          `json:"rider_id"`
	DriverID      *uuid.UUID         `json:"driver_id,omitempty"`
	CancelledBy   *types.CancelActor `json:"cancelled_by,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	CorrelationID string             `json:"correlation_id,omitempty"`
}
