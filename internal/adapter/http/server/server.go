package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-realtime/config"
	"github.com/Temutjin2k/ride-realtime/internal/adapter/http/handler"
	"github.com/Temutjin2k/ride-realtime/internal/adapter/http/middleware"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
)

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers // routes/handlers
	m      *middleware.Middleware

	serviceName     string
	addr            string
	shutdownTimeout time.Duration
	log             logger.Logger
}

type handlers struct {
	health *handler.Health
	ride   *handler.Ride
	ws     *handler.WebSocket
}

func New(
	cfg config.Config,
	rideService handler.RideService,
	wsSession handler.WSSession,
	conns handler.ConnectionCounter,
	authService middleware.AuthService,
	wsOpts WSOptions,
	logger logger.Logger,
) (*API, error) {
	if authService == nil {
		return nil, errors.New("auth service is required")
	}
	if rideService == nil || wsSession == nil {
		return nil, errors.New("ride service and websocket session are required")
	}

	routes := &handlers{
		health: handler.NewHealth(cfg.ServiceName, conns, logger),
		ride:   handler.NewRide(rideService, logger),
		ws:     handler.NewWebSocket(wsSession, authService, wsOpts.Conn, wsOpts.AllowUnverified, logger),
	}

	api := &API{
		mux:             http.NewServeMux(),
		routes:          routes,
		m:               middleware.NewMiddleware(authService, logger),
		serviceName:     cfg.ServiceName,
		addr:            cfg.Server.Addr(),
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		log:             logger,
	}

	setupRoutes(api.mux, api.routes, api.m, api.log)

	api.server = &http.Server{
		Addr:        api.addr,
		Handler:     api.withMiddleware(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout не ставим: он оборвал бы долгоживущие websocket соединения
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	return api, nil
}

// Handler returns the full middleware chain, used by tests
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) Stop(ctx context.Context) error {
	timeout := a.shutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// Run blocks until the server stops. http.ErrServerClosed after Stop is not an error.
func (a *API) Run(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "http_server_start")
	a.log.Info(ctx, "started http server", "address", a.addr)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Logging(a.m.Metrics(a.serviceName)(a.m.Auth(a.mux)))))
}
