package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a single WebSocket connection to the push endpoint.
type Client interface {
	// Connect establishes the connection and starts the read loop.
	Connect(ctx context.Context) error

	// Close tears the connection down. Safe to call twice.
	Close() error

	// Send writes one text frame.
	Send(data []byte) error

	// Frames returns the inbound frame stream for this connection.
	Frames() <-chan Frame

	// Errors reports the first fatal connection error.
	Errors() <-chan error

	// IsConnected reports current connection state.
	IsConnected() bool
}

type client struct {
	cfg    ClientConfig
	logger *slog.Logger

	conn *websocket.Conn

	frames chan Frame
	errors chan error
	done   chan struct{}

	writeMu sync.Mutex

	mu        sync.RWMutex
	connected bool
	closed    bool
	lastSeen  time.Time // last ping/pong from the server
}

// NewClient creates a client for one connection attempt.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &client{
		cfg:    cfg,
		logger: logger,
		frames: make(chan Frame, cfg.BufferSize),
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.lastSeen = time.Now()
	c.mu.Unlock()

	conn.SetPingHandler(func(data string) error {
		c.touch()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	go c.readLoop()
	go c.keepaliveLoop()

	c.logger.Debug("websocket connected", "url", c.cfg.URL)
	return nil
}

func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

func (c *client) Send(data []byte) error {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	if !connected {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) Frames() <-chan Frame {
	return c.frames
}

func (c *client) Errors() <-chan error {
	return c.errors
}

func (c *client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *client) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *client) fail(err error) {
	select {
	case c.errors <- err:
	default:
	}
}

func (c *client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			// Errors after Close are expected.
			select {
			case <-c.done:
			default:
				c.fail(err)
			}
			return
		}

		select {
		case c.frames <- Frame{Data: data, ReceivedAt: receivedAt}:
		case <-c.done:
			return
		default:
			c.logger.Warn("frame buffer full, dropping frame")
		}
	}
}

// keepaliveLoop pings the server and declares the connection stale when
// nothing has been heard for PingTimeout.
func (c *client) keepaliveLoop() {
	interval := c.cfg.PingTimeout / 2
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			lastSeen := c.lastSeen
			c.mu.RUnlock()

			if conn != nil {
				deadline := time.Now().Add(c.cfg.WriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
					c.logger.Debug("keepalive ping failed", "error", err)
				}
			}

			if time.Since(lastSeen) > c.cfg.PingTimeout {
				c.logger.Warn("connection stale", "last_seen", lastSeen, "timeout", c.cfg.PingTimeout)
				c.fail(ErrStaleConnection)
				return
			}
		}
	}
}
