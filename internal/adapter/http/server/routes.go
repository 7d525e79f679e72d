package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Temutjin2k/ride-realtime/docs"
	"github.com/Temutjin2k/ride-realtime/internal/adapter/http/middleware"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/ride-realtime/pkg/wsHub"
)

// WSOptions configures accepted websocket connections
type WSOptions struct {
	Conn            ws.Options
	AllowUnverified bool
}

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware, log logger.Logger) {
	// System Health
	mux.HandleFunc("GET /health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux, log)
	setupMetricsRoute(mux)
	setupRideRoutes(mux, routes, m)

	mux.HandleFunc("GET /ws", routes.ws.Connect) // WebSocket: events out, driver locations in
}

// setupRideRoutes setups routes for ride lifecycle
func setupRideRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /api/v1/rides", m.RequireRoles(routes.ride.CreateRide, types.RiderRole))                                    // Request a ride
	mux.Handle("GET /api/v1/rides", m.RequireRoles(routes.ride.ListRides, types.RiderRole, types.DriverRole, types.AdminRole))   // List rides of the caller
	mux.Handle("GET /api/v1/rides/{ride_id}", m.RequireRoles(routes.ride.GetRide))                                               // Ride details
	mux.Handle("POST /api/v1/rides/{ride_id}/accept", m.RequireRoles(routes.ride.AcceptRide, types.DriverRole))                  // PENDING -> ACCEPTED
	mux.Handle("POST /api/v1/rides/{ride_id}/start", m.RequireRoles(routes.ride.StartRide, types.DriverRole))                    // ACCEPTED -> IN_PROGRESS
	mux.Handle("POST /api/v1/rides/{ride_id}/complete", m.RequireRoles(routes.ride.CompleteRide, types.DriverRole))              // IN_PROGRESS -> COMPLETED
	mux.Handle("POST /api/v1/rides/{ride_id}/cancel", m.RequireRoles(routes.ride.CancelRide, types.RiderRole, types.DriverRole)) // -> CANCELLED
}

// setupSwaggerRoutes serves the Swagger UI for the registered docs instance
func setupSwaggerRoutes(mux *http.ServeMux, log logger.Logger) {
	if docs.SwaggerInfo == nil {
		log.Warn(wrap.WithAction(context.Background(), "setup swagger routes"), "swagger docs are not registered")
		return
	}

	swaggerURL := httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName())
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
