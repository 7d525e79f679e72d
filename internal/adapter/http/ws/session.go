package wshandler

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/Temutjin2k/ride-realtime/internal/adapter/http/ws/dto"
	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/metrics"
	"github.com/Temutjin2k/ride-realtime/pkg/validator"
	ws "github.com/Temutjin2k/ride-realtime/pkg/wsHub"
	"golang.org/x/time/rate"
)

const echoPrefix = "Echo: "

// MessageHandler classifies inbound frames, handled=false leaves the frame to the transport
type MessageHandler interface {
	HandleMessage(ctx context.Context, userID string, raw []byte) (bool, error)
}

type TokenValidator interface {
	Validate(ctx context.Context, token string) (models.Identity, error)
}

// Session implements the transport hooks: connect, disconnect, message.
type Session struct {
	serviceName string
	registry    *ws.Registry
	ingest      MessageHandler
	tokens      TokenValidator
	log         logger.Logger

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewSession creates transport hooks. msgPerSec <= 0 disables inbound rate limiting.
func NewSession(serviceName string, registry *ws.Registry, ingest MessageHandler, tokens TokenValidator, msgPerSec float64, burst int, log logger.Logger) *Session {
	limit := rate.Inf
	if msgPerSec > 0 {
		limit = rate.Limit(msgPerSec)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Session{
		serviceName: serviceName,
		registry:    registry,
		ingest:      ingest,
		tokens:      tokens,
		log:         log,
		limit:       limit,
		burst:       burst,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// OnConnect registers the session and binds userID when it is already known
func (s *Session) OnConnect(ctx context.Context, sessionID string, conn ws.Handle, userID string) error {
	ctx = wrap.WithAction(wrap.WithSessionID(ctx, sessionID), types.ActionWsConnect)

	if err := s.registry.Register(sessionID, conn); err != nil {
		return wrap.Error(ctx, err)
	}

	s.mu.Lock()
	s.limiters[sessionID] = rate.NewLimiter(s.limit, s.burst)
	s.mu.Unlock()

	if userID != "" {
		if err := s.registry.BindUser(sessionID, userID); err != nil {
			return wrap.Error(ctx, err)
		}
		ctx = wrap.WithUserID(ctx, userID)
	}

	s.updateGauge()
	s.log.Info(ctx, "websocket connected", "active_connections", s.registry.Count())
	return nil
}

// OnDisconnect must run synchronously when the socket closes for any reason
func (s *Session) OnDisconnect(ctx context.Context, sessionID string) {
	ctx = wrap.WithAction(wrap.WithSessionID(ctx, sessionID), types.ActionWsDisconnect)

	if userID, _ := s.registry.UserOf(sessionID); userID != "" {
		ctx = wrap.WithUserID(ctx, userID)
	}
	s.registry.Unregister(sessionID)

	s.mu.Lock()
	delete(s.limiters, sessionID)
	s.mu.Unlock()

	s.updateGauge()
	s.log.Info(ctx, "websocket disconnected", "active_connections", s.registry.Count())
}

// OnMessage handles one inbound frame. An error means the reply could not be
// written and the connection should be dropped.
func (s *Session) OnMessage(ctx context.Context, sessionID string, raw []byte) error {
	ctx = wrap.WithAction(wrap.WithSessionID(ctx, sessionID), types.ActionWsMessage)

	conn, ok := s.registry.Session(sessionID)
	if !ok {
		return ws.ErrSessionNotFound
	}

	if !s.allow(sessionID) {
		s.log.Debug(ctx, "inbound message rate limited")
		return errorResponse(conn, "rate limit exceeded")
	}

	if isAuthFrame(raw) {
		return s.authenticate(ctx, sessionID, conn, raw)
	}

	userID, _ := s.registry.UserOf(sessionID)
	if userID != "" {
		ctx = wrap.WithUserID(ctx, userID)
	}

	handled, err := s.ingest.HandleMessage(ctx, userID, raw)
	if err != nil {
		s.log.Error(wrap.ErrorCtx(ctx, err), "failed to process inbound message", err)
		return errorResponse(conn, "failed to process message")
	}
	if handled {
		return nil
	}

	// всё остальное эхо для проверки соединения
	return conn.Send(append([]byte(echoPrefix), raw...))
}

func (s *Session) authenticate(ctx context.Context, sessionID string, conn ws.Handle, raw []byte) error {
	ctx = wrap.WithAction(ctx, types.ActionWsAuth)

	var msg dto.AuthMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errorResponse(conn, "malformed auth message")
	}

	v := validator.New()
	msg.Validate(v)
	if !v.Valid() {
		return failedValidationResponse(conn, v.Errors)
	}

	if s.tokens == nil {
		return errorResponse(conn, "authentication is not available")
	}

	id, err := s.tokens.Validate(ctx, msg.Token)
	if err != nil {
		s.log.Warn(ctx, "websocket auth rejected", "error", err.Error())
		return errorResponse(conn, "invalid token")
	}

	if err := s.registry.BindUser(sessionID, id.UserID.String()); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Info(wrap.WithUserID(ctx, id.UserID.String()), "websocket session authenticated", "role", id.Role.String())
	return sendJSON(conn, dto.AuthOK{Type: dto.TypeAuthOK, UserID: id.UserID.String(), Role: id.Role.String()})
}

func (s *Session) allow(sessionID string) bool {
	s.mu.Lock()
	l, ok := s.limiters[sessionID]
	s.mu.Unlock()
	if !ok {
		return true
	}
	return l.Allow()
}

// ActiveConnections is the number of live websocket sessions
func (s *Session) ActiveConnections() int {
	return s.registry.Count()
}

func (s *Session) updateGauge() {
	metrics.WebSocketConnectionsGauge.WithLabelValues(s.serviceName).Set(float64(s.registry.Count()))
}

func isAuthFrame(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	var env dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	return env.Type == dto.TypeAuth
}
