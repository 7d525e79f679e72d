package models

import (
	"time"

	"github.com/google/uuid"
)

// EventTimeLayout: ISO-8601 UTC с точностью до секунды
const EventTimeLayout = "2006-01-02T15:04:05Z"

// EventTime marshals as EventTimeLayout
type EventTime time.Time

func (t EventTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(EventTimeLayout) + `"`), nil
}

func (t *EventTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	parsed, err := time.Parse(`"`+time.RFC3339+`"`, string(b))
	if err != nil {
		return err
	}
	*t = EventTime(parsed.UTC())
	return nil
}

func (t EventTime) Time() time.Time {
	return time.Time(t)
}

// RideStatusEvent is delivered on every accepted transition
type RideStatusEvent struct {
	RideID    uuid.UUID `json:"rideId"`
	Status    string    `json:"status"`
	Timestamp EventTime `json:"timestamp"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DriverLocationEvent is delivered to the rider of the driver's active ride
type DriverLocationEvent struct {
	RideID               uuid.UUID   `json:"rideId"`
	DriverLocation       Coordinates `json:"driverLocation"`
	EstimatedArrivalTime *int        `json:"estimatedArrivalTime,omitempty"` // минуты
	Timestamp            EventTime   `json:"timestamp"`
}
