package wshandler

import (
	"context"
	"encoding/json"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/metrics"
	ws "github.com/Temutjin2k/ride-realtime/pkg/wsHub"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// параллельных отправок при broadcast
const broadcastWorkers = 16

// EventRouter builds event payloads and delivers them through the registry.
// Delivery is at-most-once: no queue, no retry, and no error ever reaches the caller.
type EventRouter struct {
	registry *ws.Registry
	policy   types.StatusDelivery
	log      logger.Logger
}

func NewEventRouter(registry *ws.Registry, policy types.StatusDelivery, log logger.Logger) *EventRouter {
	if !policy.IsValid() {
		policy = types.DeliveryBroadcast
	}
	return &EventRouter{
		registry: registry,
		policy:   policy,
		log:      log,
	}
}

// SendToUser delivers event to the user's current connection, if there is an open one
func (r *EventRouter) SendToUser(ctx context.Context, userID string, kind types.EventKind, event any) {
	ctx = wrap.WithAction(ctx, types.ActionEventSend)

	data, ok := r.marshal(ctx, kind, event)
	if !ok {
		return
	}
	r.sendTo(ctx, userID, kind, data)
}

func (r *EventRouter) sendTo(ctx context.Context, userID string, kind types.EventKind, data []byte) {
	conn, ok := r.registry.Lookup(userID)
	if !ok || !conn.IsOpen() {
		metrics.RecordWsEvent(kind.String(), metrics.ResultDropped)
		r.log.Debug(ctx, "recipient not connected, event dropped", "recipient_id", userID, "kind", kind.String())
		return
	}

	if err := conn.Send(data); err != nil {
		metrics.RecordWsEvent(kind.String(), metrics.ResultFailed)
		r.log.Warn(ctx, "failed to deliver event", "recipient_id", userID, "session_id", conn.ID(), "kind", kind.String(), "error", err.Error())
		return
	}
	metrics.RecordWsEvent(kind.String(), metrics.ResultDelivered)
}

// Broadcast marshals once and writes to a snapshot of all live connections.
// A failing socket does not stop delivery to the others.
func (r *EventRouter) Broadcast(ctx context.Context, kind types.EventKind, event any) {
	ctx = wrap.WithAction(ctx, types.ActionBroadcast)

	data, ok := r.marshal(ctx, kind, event)
	if !ok {
		return
	}

	conns := r.registry.Connections()

	var g errgroup.Group
	g.SetLimit(broadcastWorkers)
	for _, conn := range conns {
		g.Go(func() error {
			if !conn.IsOpen() {
				metrics.RecordWsEvent(kind.String(), metrics.ResultDropped)
				return nil
			}
			if err := conn.Send(data); err != nil {
				metrics.RecordWsEvent(kind.String(), metrics.ResultFailed)
				r.log.Warn(ctx, "broadcast to session failed", "session_id", conn.ID(), "error", err.Error())
				return nil
			}
			metrics.RecordWsEvent(kind.String(), metrics.ResultDelivered)
			return nil
		})
	}
	_ = g.Wait()

	r.log.Debug(ctx, "event broadcast", "kind", kind.String(), "recipients", len(conns))
}

// RideStatusChanged routes a status event according to the delivery policy
func (r *EventRouter) RideStatusChanged(ctx context.Context, ride *models.Ride) {
	if ride == nil {
		return
	}

	event := models.RideStatusEvent{
		RideID:    ride.ID,
		Status:    ride.Status.String(),
		Timestamp: models.EventTime(statusTime(ride)),
	}

	if r.policy == types.DeliveryBroadcast {
		r.Broadcast(ctx, types.EventRideStatus, event)
		return
	}

	data, ok := r.marshal(wrap.WithAction(ctx, types.ActionEventSend), types.EventRideStatus, event)
	if !ok {
		return
	}
	r.sendTo(ctx, ride.RiderID.String(), types.EventRideStatus, data)
	if ride.DriverID != nil {
		r.sendTo(ctx, ride.DriverID.String(), types.EventRideStatus, data)
	}
}

// DriverLocationChanged is always targeted at the rider
func (r *EventRouter) DriverLocationChanged(ctx context.Context, riderID uuid.UUID, event models.DriverLocationEvent) {
	r.SendToUser(ctx, riderID.String(), types.EventDriverLocation, event)
}

func (r *EventRouter) marshal(ctx context.Context, kind types.EventKind, event any) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.RecordWsEvent(kind.String(), metrics.ResultFailed)
		r.log.Error(ctx, "failed to marshal event", err, "kind", kind.String())
		return nil, false
	}
	return data, true
}
