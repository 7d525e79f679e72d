package wshandler

import (
	"encoding/json"
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/adapter/http/ws/dto"
	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	ws "github.com/Temutjin2k/ride-realtime/pkg/wsHub"
)

func sendJSON(conn ws.Handle, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Send(data)
}

func errorResponse(conn ws.Handle, message any) error {
	return sendJSON(conn, dto.ErrorMessage{Type: dto.TypeError, Error: message})
}

func failedValidationResponse(conn ws.Handle, errors map[string]string) error {
	return errorResponse(conn, errors)
}

// statusTime returns the moment the ride entered its current status
func statusTime(ride *models.Ride) time.Time {
	var t *time.Time
	switch ride.Status {
	case types.StatusAccepted:
		t = ride.AcceptedAt
	case types.StatusInProgress:
		t = ride.StartedAt
	case types.StatusCompleted:
		t = ride.CompletedAt
	case types.StatusCancelled:
		t = ride.CancelledAt
	case types.StatusPending:
		t = &ride.CreatedAt
	}
	if t == nil || t.IsZero() {
		return time.Now().UTC()
	}
	return *t
}
