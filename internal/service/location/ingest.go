package location

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/metrics"
	"github.com/Temutjin2k/ride-realtime/pkg/validator"
	"github.com/google/uuid"
)

const (
	outcomeForwarded    = "forwarded"
	outcomeNoActiveRide = "no_active_ride"
	outcomeUnbound      = "unbound"
	outcomeFailed       = "failed"
)

// IngestService routes driver location updates to the rider of the driver's active ride
type IngestService struct {
	rides     ActiveRideResolver
	notifier  LocationNotifier
	eta       ETACalculator
	cache     LocationCache
	publisher LocationPublisher
	log       logger.Logger
	now       func() time.Time
}

func NewIngestService(rides ActiveRideResolver, notifier LocationNotifier, eta ETACalculator, log logger.Logger) *IngestService {
	return &IngestService{
		rides:    rides,
		notifier: notifier,
		eta:      eta,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithCache stores every accepted position as the driver's last known location
func (s *IngestService) WithCache(c LocationCache) *IngestService {
	s.cache = c
	return s
}

// WithPublisher streams every accepted position to telemetry
func (s *IngestService) WithPublisher(p LocationPublisher) *IngestService {
	s.publisher = p
	return s
}

// locationPayload: входящее сообщение водителя
type locationPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// parseLocation returns false for anything that is not a JSON object with
// latitude and longitude present and in range
func parseLocation(raw []byte) (locationPayload, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return locationPayload{}, false
	}

	var p locationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return locationPayload{}, false
	}
	if p.Latitude == nil || p.Longitude == nil {
		return locationPayload{}, false
	}
	if !validator.Latitude(*p.Latitude) || !validator.Longitude(*p.Longitude) {
		return locationPayload{}, false
	}
	return p, true
}

// HandleMessage classifies an inbound frame. handled=false means the frame is not a
// location update and belongs to the transport. A location with no active ride is
// dropped silently.
func (s *IngestService) HandleMessage(ctx context.Context, userID string, raw []byte) (bool, error) {
	p, ok := parseLocation(raw)
	if !ok {
		return false, nil
	}

	ctx = wrap.WithAction(ctx, types.ActionLocationIngest)

	driverID, err := uuid.Parse(userID)
	if err != nil {
		// соединение без привязанного пользователя: некого считать водителем
		metrics.LocationUpdatesTotal.WithLabelValues(outcomeUnbound).Inc()
		s.log.Debug(ctx, "location from unbound session dropped")
		return true, nil
	}
	ctx = wrap.WithUserID(ctx, driverID.String())

	ride, err := s.rides.ActiveRideForDriver(ctx, driverID)
	if err != nil {
		metrics.LocationUpdatesTotal.WithLabelValues(outcomeFailed).Inc()
		return true, wrap.Error(ctx, err)
	}
	if ride == nil {
		metrics.LocationUpdatesTotal.WithLabelValues(outcomeNoActiveRide).Inc()
		s.log.Debug(ctx, "no active ride for driver, location dropped")
		return true, nil
	}
	ctx = wrap.WithRideID(ctx, ride.ID.String())

	ts := s.timestamp(p.Timestamp)
	coords := models.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}

	event := models.DriverLocationEvent{
		RideID:               ride.ID,
		DriverLocation:       coords,
		EstimatedArrivalTime: s.estimate(ride, coords),
		Timestamp:            models.EventTime(ts),
	}
	s.notifier.DriverLocationChanged(ctx, ride.RiderID, event)
	metrics.LocationUpdatesTotal.WithLabelValues(outcomeForwarded).Inc()

	s.sideChannels(ctx, models.DriverLocation{
		DriverID:  driverID,
		RideID:    &ride.ID,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Timestamp: ts,
	})

	return true, nil
}

// клиенты шлют время и с зоной, и без неё; без зоны считаем UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// timestamp uses the caller supplied time when it parses, otherwise now
func (s *IngestService) timestamp(raw string) time.Time {
	if raw == "" {
		return s.now()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return s.now()
}

// estimate: к точке посадки пока ACCEPTED, к точке высадки во время поездки
func (s *IngestService) estimate(ride *models.Ride, at models.Coordinates) *int {
	if s.eta == nil {
		return nil
	}

	from := models.Location{Latitude: at.Latitude, Longitude: at.Longitude}
	var minutes int

	switch {
	case ride.Status == types.StatusAccepted:
		minutes = s.eta.ETA(from, ride.Pickup)
	case ride.Status == types.StatusInProgress && ride.Dropoff != nil:
		minutes = s.eta.ETA(from, *ride.Dropoff)
	default:
		return nil
	}
	return &minutes
}

// sideChannels are best-effort, a failure never affects delivery
func (s *IngestService) sideChannels(ctx context.Context, loc models.DriverLocation) {
	if s.cache != nil {
		if err := s.cache.Save(ctx, loc); err != nil {
			s.log.Warn(wrap.WithAction(ctx, types.ActionExternalServiceFailed), "failed to cache driver location", "error", err.Error())
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, loc); err != nil {
			s.log.Warn(wrap.WithAction(ctx, types.ActionExternalServiceFailed), "failed to publish driver location", "error", err.Error())
		}
	}
}
