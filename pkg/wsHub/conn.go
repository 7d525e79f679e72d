package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var ErrConnClosed = errors.New("connection is closed")

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadLimit    = 4096
)

// Options tunes a single websocket connection
type Options struct {
	WriteTimeout time.Duration // deadline for every write, keeps sends bounded
	PingInterval time.Duration // 0 disables keep-alive pings
	ReadLimit    int64
}

// Conn is one live websocket session. gorilla/websocket supports one
// concurrent writer, so every write goes through mu.
type Conn struct {
	id     string
	conn   *websocket.Conn
	opts   Options
	closed atomic.Bool

	doneCtx context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
}

func NewConn(ctx context.Context, sessionID string, conn *websocket.Conn, opts Options) *Conn {
	ctx, cancel := context.WithCancel(ctx)

	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	conn.SetReadLimit(opts.ReadLimit)

	return &Conn{
		id:      sessionID,
		conn:    conn,
		opts:    opts,
		doneCtx: ctx,
		cancel:  cancel,
	}
}

// ID returns the session id assigned by the transport layer
func (c *Conn) ID() string {
	return c.id
}

// IsOpen reports whether the connection can still be written to
func (c *Conn) IsOpen() bool {
	if c.closed.Load() {
		return false
	}
	select {
	case <-c.doneCtx.Done():
		return false
	default:
		return true
	}
}

// Health sends a ping control frame
func (c *Conn) Health() error {
	if !c.IsOpen() {
		return ErrConnClosed
	}

	// WriteControl можно вызывать параллельно с остальными методами
	if err := c.conn.WriteControl(
		websocket.PingMessage,
		[]byte("ping"),
		time.Now().Add(c.opts.WriteTimeout),
	); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	return nil
}

// Send writes one text frame with a write deadline
func (c *Conn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.IsOpen() {
		return ErrConnClosed
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

// Listen runs the read loop until the peer goes away, the handler fails or
// the connection is closed. A normal close returns nil.
func (c *Conn) Listen(handler func(msg []byte) error) error {
	if c.opts.PingInterval > 0 {
		pongWait := c.opts.PingInterval * 2
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go c.keepAlive()
	}

	for {
		select {
		case <-c.doneCtx.Done():
			return nil
		default:
		}

		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.IsOpen() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		if err := handler(data); err != nil {
			return fmt.Errorf("handler failed: %w", err)
		}
	}
}

func (c *Conn) keepAlive() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.doneCtx.Done():
			return
		case <-ticker.C:
			if err := c.Health(); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

// Close is idempotent
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}
