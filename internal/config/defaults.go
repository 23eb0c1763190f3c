package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTopic              = "/topic/push"
	DefaultReconnectBaseDelay = 250 * time.Millisecond
	DefaultReconnectMaxDelay  = 16 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultMessageBufferSize  = 1000
	DefaultBacklogLimit       = 1000
	DefaultEventBuffer        = 64
	DefaultBatchSize          = 100
	DefaultFlushInterval      = 1 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultHealthPort         = 8080
	DefaultHealthPath         = "/health"
)

func (c *ViewerConfig) applyDefaults() {
	// Server defaults
	if c.Server.Topic == "" {
		c.Server.Topic = DefaultTopic
	}
	if c.Server.ReconnectBaseDelay == 0 {
		c.Server.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Server.ReconnectMaxDelay == 0 {
		c.Server.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Server.PingTimeout == 0 {
		c.Server.PingTimeout = DefaultPingTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.MessageBufferSize == 0 {
		c.Server.MessageBufferSize = DefaultMessageBufferSize
	}

	// Engine defaults
	if c.Engine.BacklogLimit == 0 {
		c.Engine.BacklogLimit = DefaultBacklogLimit
	}
	if c.Engine.EventBuffer == 0 {
		c.Engine.EventBuffer = DefaultEventBuffer
	}

	// Archive defaults
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultFlushInterval
	}
	applyDBDefaults(&c.Archive.Database)

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
