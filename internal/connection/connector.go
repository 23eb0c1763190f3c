package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Connector maintains one subscribed connection to the push endpoint,
// reconnecting with exponential backoff on failure.
type Connector struct {
	cfg    ConnectorConfig
	logger *slog.Logger

	// Factory indirection so tests can inject a fake client.
	newClient func(ClientConfig, *slog.Logger) Client

	out    chan RawMessage
	status chan bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	stats ConnectorStats
}

// ConnectorStats are runtime counters for the connector.
type ConnectorStats struct {
	Connected       bool
	ConnectAttempts int64
	Reconnects      int64
	FramesDelivered int64
	FramesDropped   int64
}

// NewConnector creates a connector. A missing client id is generated once
// here and reused for every reconnection.
func NewConnector(cfg ConnectorConfig, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultConnectorConfig().ClientID
	}
	return &Connector{
		cfg:       cfg,
		logger:    logger,
		newClient: NewClient,
		out:       make(chan RawMessage, cfg.MessageBufferSize),
		status:    make(chan bool, 4),
	}
}

// Start begins connecting in the background. Idempotent connect semantics
// live here: calling Start twice is a no-op after the first.
func (c *Connector) Start(ctx context.Context) error {
	if c.ctx != nil {
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.run()

	c.logger.Info("connector started",
		"url", c.cfg.URL,
		"topic", c.cfg.Topic,
		"client_id", c.cfg.ClientID,
	)
	return nil
}

// Stop shuts the connector down.
func (c *Connector) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("connector stopped")
	case <-ctx.Done():
		c.logger.Warn("connector stop timed out")
	}

	close(c.out)
	close(c.status)
	return nil
}

// Messages returns the inbound frame stream. The stream never terminates on
// individual connection failures; only Stop ends it.
func (c *Connector) Messages() <-chan RawMessage {
	return c.out
}

// Status reports connectivity transitions: true once per reconnect, false
// once per loss.
func (c *Connector) Status() <-chan bool {
	return c.status
}

// Stats returns current counters.
func (c *Connector) Stats() ConnectorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// run is the connect/consume/reconnect loop.
func (c *Connector) run() {
	defer c.wg.Done()

	failures := 0
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		c.stats.ConnectAttempts++
		c.mu.Unlock()

		client := c.newClient(ClientConfig{
			URL:          c.cfg.URL,
			PingTimeout:  c.cfg.PingTimeout,
			WriteTimeout: c.cfg.WriteTimeout,
			BufferSize:   c.cfg.MessageBufferSize,
		}, c.logger)

		err := client.Connect(c.ctx)
		if err == nil {
			err = c.subscribe(client)
		}
		if err != nil {
			client.Close()
			failures++
			wait := c.nextDelay(failures)
			c.logger.Warn("connect failed",
				"attempt", failures,
				"retry_in", wait,
				"error", err,
			)
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		// Connected and subscribed: reset backoff, signal the transition.
		if failures > 0 {
			c.mu.Lock()
			c.stats.Reconnects++
			c.mu.Unlock()
		}
		failures = 0
		c.setConnected(true)

		c.consume(client)
		client.Close()
		c.setConnected(false)

		failures = 1
		wait := c.nextDelay(failures)
		c.logger.Info("connection lost", "retry_in", wait)
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// subscribe starts the push stream for this client id on the fixed topic.
func (c *Connector) subscribe(client Client) error {
	cmd := subscribeCmd{
		Cmd:    "subscribe",
		Topic:  c.cfg.Topic,
		Client: c.cfg.ClientID,
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return client.Send(data)
}

// consume forwards frames until the connection fails or the connector stops.
func (c *Connector) consume(client Client) {
	for {
		select {
		case <-c.ctx.Done():
			return

		case err := <-client.Errors():
			c.logger.Warn("connection error", "error", err)
			return

		case frame, ok := <-client.Frames():
			if !ok {
				return
			}
			msg := RawMessage{Data: frame.Data, ReceivedAt: frame.ReceivedAt}
			select {
			case c.out <- msg:
				c.mu.Lock()
				c.stats.FramesDelivered++
				c.mu.Unlock()
			case <-c.ctx.Done():
				return
			default:
				c.mu.Lock()
				c.stats.FramesDropped++
				c.mu.Unlock()
				c.logger.Warn("message buffer full, dropping frame")
			}
		}
	}
}

// setConnected records the state and emits the transition signal.
func (c *Connector) setConnected(connected bool) {
	c.mu.Lock()
	c.stats.Connected = connected
	c.mu.Unlock()

	select {
	case c.status <- connected:
	case <-c.ctx.Done():
	}
}

// nextDelay computes the backoff delay after n consecutive failures:
// min(base * 2^(n-1), cap) plus jitter in [0, base).
func (c *Connector) nextDelay(failures int) time.Duration {
	base := c.cfg.ReconnectBaseWait
	max := c.cfg.ReconnectMaxWait
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	if max < base {
		max = base
	}

	wait := base
	for i := 1; i < failures; i++ {
		wait *= 2
		if wait >= max {
			wait = max
			break
		}
	}
	if wait > max {
		wait = max
	}

	jitter := time.Duration(rand.Int63n(int64(base)))
	return wait + jitter
}
