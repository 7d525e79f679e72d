package types

import (
	"errors"
	"testing"
)

func TestRideStatus_CanTransitionTo(t *testing.T) {
	all := []RideStatus{StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled}

	allowed := map[[2]RideStatus]bool{
		{StatusPending, StatusAccepted}:      true,
		{StatusPending, StatusCancelled}:     true,
		{StatusAccepted, StatusInProgress}:   true,
		{StatusAccepted, StatusCancelled}:    true,
		{StatusInProgress, StatusCompleted}:  true,
		{StatusInProgress, StatusCancelled}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]RideStatus{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestRideStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status RideStatus
		want   bool
	}{
		{StatusPending, false},
		{StatusAccepted, false},
		{StatusInProgress, false},
		{StatusCompleted, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestParseRideStatus(t *testing.T) {
	if st, err := ParseRideStatus("IN_PROGRESS"); err != nil || st != StatusInProgress {
		t.Fatalf("got %v, %v", st, err)
	}
	if _, err := ParseRideStatus("MATCHED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("got %v, want ErrInvalidStatus", err)
	}
}
