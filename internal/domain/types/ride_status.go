package types

import "fmt"

// RideStatus: статус поездки. PENDING начальный, COMPLETED и CANCELLED терминальные.
type RideStatus string

func (s RideStatus) String() string {
	return string(s)
}

const (
	StatusPending    RideStatus = "PENDING"
	StatusAccepted   RideStatus = "ACCEPTED"
	StatusInProgress RideStatus = "IN_PROGRESS"
	StatusCompleted  RideStatus = "COMPLETED"
	StatusCancelled  RideStatus = "CANCELLED"
)

// ActiveStatuses are the statuses in which a driver is bound to a ride
var ActiveStatuses = []RideStatus{StatusAccepted, StatusInProgress}

var transitions = map[RideStatus][]RideStatus{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether next is a legal move from s
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RideStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s RideStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ParseRideStatus(s string) (RideStatus, error) {
	st := RideStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown ride status %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// CancelActor records who cancelled the ride
type CancelActor string

const (
	CancelledByRider  CancelActor = "RIDER"
	CancelledByDriver CancelActor = "DRIVER"
)
