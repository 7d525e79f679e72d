package models

import (
	"time"

	"github.com/google/uuid"
)

// DriverLocation is the last known driver position, kept in cache and sent to telemetry
type DriverLocation struct {
	DriverID  uuid.UUID  `json:"driver_id"`
	RideID    *uuid.UUID `json:"ride_id,omitempty"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timestamp time.Time  `json:"timestamp"`
}
