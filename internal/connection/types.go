package connection

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors.
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// Frame is one raw inbound frame with its local receive timestamp.
type Frame struct {
	Data       []byte
	ReceivedAt time.Time
}

// RawMessage is a frame handed from the Connector to the reconciliation
// engine.
type RawMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// subscribeCmd is the frame sent once per (re)connection to start the push
// stream for this client.
type subscribeCmd struct {
	Cmd    string `json:"cmd"`
	Topic  string `json:"topic"`
	Client string `json:"client"`
}

// ClientConfig configures a single WebSocket connection.
type ClientConfig struct {
	URL          string
	PingTimeout  time.Duration // max silence before the connection counts as stale
	WriteTimeout time.Duration
	BufferSize   int // frame channel buffer
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// ConnectorConfig configures the Connector.
type ConnectorConfig struct {
	URL               string
	Topic             string        // fixed push topic
	ClientID          string        // per-process subscription id; generated when empty
	ReconnectBaseWait time.Duration // first backoff delay
	ReconnectMaxWait  time.Duration // backoff ceiling
	PingTimeout       time.Duration
	WriteTimeout      time.Duration
	MessageBufferSize int
}

// DefaultConnectorConfig returns sensible defaults. The client id is unique
// per process.
func DefaultConnectorConfig() ConnectorConfig {
	return ConnectorConfig{
		Topic:             "/topic/push",
		ClientID:          uuid.NewString(),
		ReconnectBaseWait: 250 * time.Millisecond,
		ReconnectMaxWait:  16 * time.Second,
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		MessageBufferSize: 1000,
	}
}
