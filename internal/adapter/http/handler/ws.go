package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/ride-realtime/pkg/wsHub"
)

// WSSession is the transport hooks implementation
type WSSession interface {
	OnConnect(ctx context.Context, sessionID string, conn ws.Handle, userID string) error
	OnDisconnect(ctx context.Context, sessionID string)
	OnMessage(ctx context.Context, sessionID string, raw []byte) error
}

type TokenValidator interface {
	Validate(ctx context.Context, token string) (models.Identity, error)
}

type WebSocket struct {
	session  WSSession
	tokens   TokenValidator
	upgrader websocket.Upgrader
	opts     ws.Options

	// доверять ?userId= без токена, только для разработки
	allowUnverified bool

	l logger.Logger
}

func NewWebSocket(session WSSession, tokens TokenValidator, opts ws.Options, allowUnverified bool, l logger.Logger) *WebSocket {
	return &WebSocket{
		session: session,
		tokens:  tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		opts:            opts,
		allowUnverified: allowUnverified,
		l:               l,
	}
}

// Connect godoc
// @Summary      WebSocket endpoint
// @Description  Upgrades to a websocket. Identity comes from ?token=, from ?userId= when unverified binding is enabled, or from a later {"type":"auth","token":"..."} frame. Drivers send {"latitude","longitude"} frames, everything else is echoed back.
// @Tags         WebSocket
// @Param        token   query  string  false  "access token"
// @Param        userId  query  string  false  "user id, development only"
// @Success      101  {string}  string  "switching protocols"
// @Failure      400,401  {object}  map[string]any
// @Router       /ws [get]
func (h *WebSocket) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionWsConnect)

	userID, status, msg := h.resolveUser(ctx, r)
	if status != 0 {
		h.l.Warn(ctx, "websocket connection rejected", "reason", msg)
		errorResponse(w, status, msg)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.l.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	sessionID := uuid.NewString()
	ctx = wrap.WithSessionID(ctx, sessionID)
	c := ws.NewConn(ctx, sessionID, conn, h.opts)

	if err := h.session.OnConnect(ctx, sessionID, c, userID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register websocket session", err)
		_ = c.Close()
		return
	}
	defer func() {
		h.session.OnDisconnect(ctx, sessionID)
		_ = c.Close()
	}()

	msgCtx := wrap.WithAction(ctx, types.ActionWsMessage)
	if err := c.Listen(func(raw []byte) error {
		return h.session.OnMessage(msgCtx, sessionID, raw)
	}); err != nil {
		h.l.Debug(ctx, "websocket read loop finished", "error", err.Error())
	}
}

// resolveUser returns the user id to bind at connect time, "" for an unbound session.
// A non-zero status rejects the request before upgrading.
func (h *WebSocket) resolveUser(ctx context.Context, r *http.Request) (string, int, string) {
	q := r.URL.Query()

	token := q.Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); header != "" {
			if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				token = parts[1]
			}
		}
	}

	if token != "" {
		if h.tokens == nil {
			return "", http.StatusUnauthorized, "authentication is not available"
		}
		id, err := h.tokens.Validate(ctx, token)
		if err != nil {
			return "", http.StatusUnauthorized, "invalid token"
		}
		return id.UserID.String(), 0, ""
	}

	raw := q.Get("userId")
	if raw == "" {
		raw = q.Get("user_id")
	}
	if raw == "" {
		return "", 0, ""
	}
	if !h.allowUnverified {
		return "", http.StatusUnauthorized, "unverified user binding is disabled, use a token"
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return "", http.StatusBadRequest, "invalid user uuid format"
	}
	return id.String(), 0, ""
}
