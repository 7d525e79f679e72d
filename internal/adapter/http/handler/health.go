package handler

import (
	"net/http"

	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
)

type ConnectionCounter interface {
	ActiveConnections() int
}

type Health struct {
	serviceName string
	conns       ConnectionCounter
	log         logger.Logger
}

func NewHealth(serviceName string, conns ConnectionCounter, log logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		conns:       conns,
		log:         log,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Returns the health status of the service and the number of live websocket sessions
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /health [get]
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	active := 0
	if a.conns != nil {
		active = a.conns.ActiveConnections()
	}

	response := envelope{
		"status":             "available",
		"active_connections": active,
		"system_info": map[string]string{
			"service-name": a.serviceName,
		},
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
		return
	}
}
