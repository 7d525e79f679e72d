package types

// EventKind labels outbound realtime events
type EventKind string

func (k EventKind) String() string {
	return string(k)
}

const (
	EventRideStatus     EventKind = "ride_status"
	EventDriverLocation EventKind = "driver_location"
)
