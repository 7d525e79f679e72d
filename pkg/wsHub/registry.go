package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
)

var (
	ErrEmptyConn       = errors.New("connection is empty")
	ErrSessionNotFound = errors.New("session not found")
)

// Handle is what the registry needs from a live connection. *Conn implements it.
type Handle interface {
	ID() string
	IsOpen() bool
	Send(msg []byte) error
	Close() error
}

type entry struct {
	handle Handle
	userID string
}

// Registry хранит активные WebSocket сессии и привязку пользователь -> сессия.
// Обе карты меняются только под одним локом, поэтому читатель никогда не видит
// полуобновлённую пару.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	users    map[string]*entry
	l        logger.Logger
}

func NewRegistry(l logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		users:    make(map[string]*entry),
		l:        l,
	}
}

// Register adds a session. An entry with the same session id is replaced.
func (r *Registry) Register(sessionID string, h Handle) error {
	if h == nil {
		return ErrEmptyConn
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[sessionID]; ok {
		r.l.Warn(wrap.WithAction(context.Background(), "ws_register"),
			"replacing stale session entry", "session_id", sessionID)
		r.dropUserLocked(old)
	}

	r.sessions[sessionID] = &entry{handle: h}
	return nil
}

// BindUser points userID at the session. A newer session silently supersedes
// the previous one for routing; the old socket stays open until it closes itself.
func (r *Registry) BindUser(sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	if e.userID != "" && e.userID != userID {
		r.dropUserLocked(e)
	}

	if prev, ok := r.users[userID]; ok && prev != e {
		r.l.Debug(wrap.WithAction(context.Background(), "ws_bind_user"),
			"user connection superseded",
			"user_id", userID,
			"old_session_id", prev.handle.ID(),
			"session_id", sessionID,
		)
	}

	e.userID = userID
	r.users[userID] = e
	return nil
}

// Unregister removes the session and, only if it still points at this very
// session, the user mapping. A late close of an old socket never removes the
// mapping of a newer connection.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return
	}

	delete(r.sessions, sessionID)
	r.dropUserLocked(e)
}

func (r *Registry) dropUserLocked(e *entry) {
	if e.userID == "" {
		return
	}
	if cur, ok := r.users[e.userID]; ok && cur == e {
		delete(r.users, e.userID)
	}
}

// Lookup returns the current connection of the user
func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.users[userID]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// Session returns the connection registered under sessionID
func (r *Registry) Session(sessionID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// UserOf returns the user bound to a session, "" when unbound
func (r *Registry) UserOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}
	return e.userID, true
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Connections returns a snapshot of all live sessions, safe to iterate without the lock
func (r *Registry) Connections() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Handle, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.handle)
	}
	return out
}

// CloseAll закрывает каждое websocket соединение и очищает реестр
func (r *Registry) CloseAll() {
	ctx := wrap.WithAction(context.Background(), "ws_registry_close")

	// копируем под локом, закрываем вне лока
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.sessions))
	for _, e := range r.sessions {
		handles = append(handles, e.handle)
	}
	r.sessions = make(map[string]*entry)
	r.users = make(map[string]*entry)
	r.mu.Unlock()

	for _, h := range handles {
		if err := h.Close(); err != nil {
			r.l.Warn(ctx, "failed to close conn", "session_id", h.ID(), "err", err.Error())
		}
	}

	r.l.Info(ctx, "all websocket connections closed gracefully", "count", len(handles))
}
