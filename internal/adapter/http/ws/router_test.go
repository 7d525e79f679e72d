package wshandler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	ws "github.com/Temutjin2k/ride-realtime/pkg/wsHub"
	"github.com/google/uuid"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	sent   [][]byte
	closed bool
	failOn error
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeConn) Send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ws.ErrConnClosed
	}
	if f.failOn != nil {
		return f.failOn
	}
	f.sent = append(f.sent, append([]byte(nil), msg...))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

func register(t *testing.T, reg *ws.Registry, sessionID, userID string) *fakeConn {
	t.Helper()
	c := newFakeConn(sessionID)
	if err := reg.Register(sessionID, c); err != nil {
		t.Fatalf("register %s: %v", sessionID, err)
	}
	if userID != "" {
		if err := reg.BindUser(sessionID, userID); err != nil {
			t.Fatalf("bind %s: %v", sessionID, err)
		}
	}
	return c
}

func acceptedRide() *models.Ride {
	driver := uuid.New()
	accepted := time.Date(2024, 12, 16, 10, 35, 12, 0, time.UTC)
	return &models.Ride{
		ID:         uuid.New(),
		RiderID:    uuid.New(),
		DriverID:   &driver,
		Status:     types.StatusAccepted,
		CreatedAt:  accepted.Add(-time.Minute),
		AcceptedAt: &accepted,
	}
}

func TestRideStatusChanged_Broadcast(t *testing.T) {
	reg := ws.NewRegistry(logger.Discard())
	router := NewEventRouter(reg, types.DeliveryBroadcast, logger.Discard())

	ride := acceptedRide()
	rider := register(t, reg, "s-rider", ride.RiderID.String())
	stranger := register(t, reg, "s-other", uuid.NewString())
	unbound := register(t, reg, "s-unbound", "")

	router.RideStatusChanged(context.Background(), ride)

	for name, c := range map[string]*fakeConn{"rider": rider, "stranger": stranger, "unbound": unbound} {
		msgs := c.messages()
		if len(msgs) != 1 {
			t.Fatalf("%s: got %d messages, want 1", name, len(msgs))
		}

		var got map[string]any
		if err := json.Unmarshal(msgs[0], &got); err != nil {
			t.Fatalf("%s: bad payload: %v", name, err)
		}
		if got["rideId"] != ride.ID.String() {
			t.Errorf("%s: rideId = %v", name, got["rideId"])
		}
		if got["status"] != "ACCEPTED" {
			t.Errorf("%s: status = %v", name, got["status"])
		}
		if got["timestamp"] != "2024-12-16T10:35:12Z" {
			t.Errorf("%s: timestamp = %v", name, got["timestamp"])
		}
	}
}

func TestRideStatusChanged_Targeted(t *testing.T) {
	reg := ws.NewRegistry(logger.Discard())
	router := NewEventRouter(reg, types.DeliveryTargeted, logger.Discard())

	ride := acceptedRide()
	rider := register(t, reg, "s-rider", ride.RiderID.String())
	driver := register(t, reg, "s-driver", ride.DriverID.String())
	stranger := register(t, reg, "s-other", uuid.NewString())

	router.RideStatusChanged(context.Background(), ride)

	if n := len(rider.messages()); n != 1 {
		t.Errorf("rider got %d messages, want 1", n)
	}
	if n := len(driver.messages()); n != 1 {
		t.Errorf("driver got %d messages, want 1", n)
	}
	if n := len(stranger.messages()); n != 0 {
		t.Errorf("stranger got %d messages, want 0", n)
	}
}

func TestBroadcast_FailingConnectionIsolated(t *testing.T) {
	reg := ws.NewRegistry(logger.Discard())
	router := NewEventRouter(reg, types.DeliveryBroadcast, logger.Discard())

	bad := register(t, reg, "s-bad", "")
	bad.failOn = errors.New("broken pipe")
	closed := register(t, reg, "s-closed", "")
	_ = closed.Close()

	var good []*fakeConn
	for i := 0; i < 40; i++ {
		good = append(good, register(t, reg, uuid.NewString(), ""))
	}

	router.Broadcast(context.Background(), types.EventRideStatus, models.RideStatusEvent{
		RideID: uuid.New(), Status: "COMPLETED", Timestamp: models.EventTime(time.Now()),
	})

	for i, c := range good {
		if n := len(c.messages()); n != 1 {
			t.Fatalf("conn %d got %d messages, want 1", i, n)
		}
	}
}

func TestDriverLocationChanged(t *testing.T) {
	reg := ws.NewRegistry(logger.Discard())
	router := NewEventRouter(reg, types.DeliveryBroadcast, logger.Discard())

	riderID := uuid.New()
	rider := register(t, reg, "s-rider", riderID.String())
	other := register(t, reg, "s-other", uuid.NewString())

	eta := 7
	rideID := uuid.New()
	router.DriverLocationChanged(context.Background(), riderID, models.DriverLocationEvent{
		RideID:               rideID,
		DriverLocation:       models.Coordinates{Latitude: 40.7128, Longitude: -74.0060},
		EstimatedArrivalTime: &eta,
		Timestamp:            models.EventTime(time.Date(2024, 12, 16, 10, 40, 0, 0, time.UTC)),
	})

	if n := len(other.messages()); n != 0 {
		t.Fatalf("location leaked to another user: %d messages", n)
	}

	msgs := rider.messages()
	if len(msgs) != 1 {
		t.Fatalf("rider got %d messages, want 1", len(msgs))
	}

	var got struct {
		RideID         string `json:"rideId"`
		DriverLocation struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"driverLocation"`
		EstimatedArrivalTime int    `json:"estimatedArrivalTime"`
		Timestamp            string `json:"timestamp"`
	}
	if err := json.Unmarshal(msgs[0], &got); err != nil {
		t.Fatal(err)
	}
	if got.RideID != rideID.String() || got.EstimatedArrivalTime != 7 || got.DriverLocation.Latitude != 40.7128 {
		t.Errorf("unexpected payload: %s", msgs[0])
	}
	if got.Timestamp != "2024-12-16T10:40:00Z" {
		t.Errorf("timestamp = %q", got.Timestamp)
	}
}

func TestSendToUser_NeverMisdelivers(t *testing.T) {
	tests := []struct {
		name string
		// setup returns connections that must stay silent and the one that must
		// receive the event, nil when the event has to be dropped
		setup func(t *testing.T, reg *ws.Registry, target string) (silent []*fakeConn, want *fakeConn)
	}{
		{
			name: "unbound user",
			setup: func(t *testing.T, reg *ws.Registry, target string) ([]*fakeConn, *fakeConn) {
				anon := register(t, reg, "s-anon", "")
				return []*fakeConn{anon}, nil
			},
		},
		{
			name: "closed connection",
			setup: func(t *testing.T, reg *ws.Registry, target string) ([]*fakeConn, *fakeConn) {
				c := register(t, reg, "s-closed", target)
				_ = c.Close()
				return []*fakeConn{c}, nil
			},
		},
		{
			name: "superseded session",
			setup: func(t *testing.T, reg *ws.Registry, target string) ([]*fakeConn, *fakeConn) {
				old := register(t, reg, "s-old", target)
				fresh := register(t, reg, "s-new", target)
				return []*fakeConn{old}, fresh
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := ws.NewRegistry(logger.Discard())
			router := NewEventRouter(reg, types.DeliveryTargeted, logger.Discard())

			target := uuid.NewString()
			bystander := register(t, reg, "s-bystander", uuid.NewString())
			silent, want := tt.setup(t, reg, target)

			router.SendToUser(context.Background(), target, types.EventRideStatus, map[string]string{"rideId": "r1"})

			if msgs := bystander.messages(); len(msgs) != 0 {
				t.Errorf("bystander received %d messages", len(msgs))
			}
			for _, c := range silent {
				if msgs := c.messages(); len(msgs) != 0 {
					t.Errorf("session %s received %d messages", c.ID(), len(msgs))
				}
			}
			if want != nil {
				if msgs := want.messages(); len(msgs) != 1 {
					t.Errorf("current session received %d messages, want 1", len(msgs))
				}
			}
		})
	}
}

func TestNewEventRouter_InvalidPolicyFallsBack(t *testing.T) {
	router := NewEventRouter(ws.NewRegistry(logger.Discard()), types.StatusDelivery("everyone"), logger.Discard())
	if router.policy != types.DeliveryBroadcast {
		t.Errorf("policy = %q, want broadcast", router.policy)
	}
}
