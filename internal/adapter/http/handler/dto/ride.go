package dto

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/validator"
)

type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

func (l *LocationRequest) validate(v *validator.Validator, prefix string) {
	v.Check(l.Latitude != nil, prefix+".latitude", "must be provided")
	v.Check(l.Longitude != nil, prefix+".longitude", "must be provided")
	if l.Latitude != nil {
		v.Check(validator.Latitude(*l.Latitude), prefix+".latitude", "must be between -90 and 90")
	}
	if l.Longitude != nil {
		v.Check(validator.Longitude(*l.Longitude), prefix+".longitude", "must be between -180 and 180")
	}
	v.Check(len(l.Address) <= 255, prefix+".address", "must not be more than 255 characters long")
}

func (l *LocationRequest) toModel() models.Location {
	return models.Location{
		Latitude:  *l.Latitude,
		Longitude: *l.Longitude,
		Address:   l.Address,
	}
}

type CreateRideRequest struct {
	Pickup  *LocationRequest `json:"pickup"`
	Dropoff *LocationRequest `json:"dropoff"`
}

// для создания поездки, dropoff необязателен
func (r *CreateRideRequest) Validate(v *validator.Validator) {
	v.Check(r.Pickup != nil, "pickup", "must be provided")
	if r.Pickup != nil {
		r.Pickup.validate(v, "pickup")
	}
	if r.Dropoff != nil {
		r.Dropoff.validate(v, "dropoff")
	}
}

// ToModel must be called only after a successful Validate
func (r *CreateRideRequest) ToModel() (pickup models.Location, dropoff *models.Location) {
	pickup = r.Pickup.toModel()
	if r.Dropoff != nil {
		d := r.Dropoff.toModel()
		dropoff = &d
	}
	return pickup, dropoff
}

type AcceptRideRequest struct {
	VehicleID string `json:"vehicle_id"`
}

func (r *AcceptRideRequest) Validate(v *validator.Validator) {
	v.Check(r.VehicleID != "", "vehicle_id", "must be provided")
	if r.VehicleID != "" {
		v.Check(validator.IsUUID(r.VehicleID), "vehicle_id", "must be a valid UUID")
	}
}

type CancelRideRequest struct {
	Reason string `json:"reason"`
}

// для отмены поездки
func (r *CancelRideRequest) Validate(v *validator.Validator) {
	v.Check(r.Reason != "", "reason", "must be provided")
	v.Check(len(r.Reason) <= 500, "reason", "must not be more than 500 characters long")
}

// ListRidesQuery is parsed from the query string
type ListRidesQuery struct {
	Status *types.RideStatus
	Limit  int
	Offset int
}

func ParseListRidesQuery(v *validator.Validator, status, limit, offset string) ListRidesQuery {
	var q ListRidesQuery

	if status != "" {
		s, err := types.ParseRideStatus(status)
		v.Check(err == nil, "status", "must be one of PENDING, ACCEPTED, IN_PROGRESS, COMPLETED, CANCELLED")
		if err == nil {
			q.Status = &s
		}
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		v.Check(err == nil && n > 0, "limit", "must be a positive integer")
		q.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		v.Check(err == nil && n >= 0, "offset", "must be a non-negative integer")
		q.Offset = n
	}
	return q
}

type DriverLocationResponse struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RideResponse struct {
	RideID             uuid.UUID               `json:"ride_id"`
	RiderID            uuid.UUID               `json:"rider_id"`
	DriverID           *uuid.UUID              `json:"driver_id,omitempty"`
	VehicleID          *uuid.UUID              `json:"vehicle_id,omitempty"`
	Status             string                  `json:"status"`
	Pickup             models.Location         `json:"pickup"`
	Dropoff            *models.Location        `json:"dropoff,omitempty"`
	EstimatedFare      float64                 `json:"estimated_fare"`
	Fare               float64                 `json:"fare"`
	DistanceKm         float64                 `json:"distance_km"`
	CancelledBy        *types.CancelActor      `json:"cancelled_by,omitempty"`
	CancellationReason *string                 `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	AcceptedAt         *time.Time              `json:"accepted_at,omitempty"`
	StartedAt          *time.Time              `json:"started_at,omitempty"`
	CompletedAt        *time.Time              `json:"completed_at,omitempty"`
	CancelledAt        *time.Time              `json:"cancelled_at,omitempty"`
	DriverLocation     *DriverLocationResponse `json:"driver_location,omitempty"`
}

func NewRideResponse(d *models.RideDetails) RideResponse {
	r := d.Ride
	resp := RideResponse{
		RideID:             r.ID,
		RiderID:            r.RiderID,
		DriverID:           r.DriverID,
		VehicleID:          r.VehicleID,
		Status:             r.Status.String(),
		Pickup:             r.Pickup,
		Dropoff:            r.Dropoff,
		EstimatedFare:      d.EstimatedFare,
		Fare:               d.Fare,
		DistanceKm:         d.DistanceKm,
		CancelledBy:        r.CancelledBy,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
		AcceptedAt:         r.AcceptedAt,
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
		CancelledAt:        r.CancelledAt,
	}
	if loc := d.DriverLocation; loc != nil {
		resp.DriverLocation = &DriverLocationResponse{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			UpdatedAt: loc.Timestamp,
		}
	}
	return resp
}

func NewRideListResponse(items []*models.RideDetails) []RideResponse {
	out := make([]RideResponse, 0, len(items))
	for _, d := range items {
		out = append(out, NewRideResponse(d))
	}
	return out
}
