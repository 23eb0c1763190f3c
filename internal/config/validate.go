package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ViewerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Server.URL == "" {
		return errors.New("server.url is required")
	}
	if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
		return fmt.Errorf("server.url must be a ws:// or wss:// URL, got %q", c.Server.URL)
	}
	if c.Server.Topic == "" {
		return errors.New("server.topic is required")
	}
	if c.Server.ReconnectBaseDelay <= 0 {
		return errors.New("server.reconnect_base_delay must be positive")
	}
	if c.Server.ReconnectMaxDelay < c.Server.ReconnectBaseDelay {
		return fmt.Errorf("server.reconnect_max_delay (%v) cannot be below reconnect_base_delay (%v)",
			c.Server.ReconnectMaxDelay, c.Server.ReconnectBaseDelay)
	}

	if c.Engine.BacklogLimit < 1 {
		return errors.New("engine.backlog_limit must be >= 1")
	}
	if c.Engine.EventBuffer < 1 {
		return errors.New("engine.event_buffer must be >= 1")
	}

	if c.Archive.Enabled {
		if err := c.Archive.Database.validate("archive.database"); err != nil {
			return err
		}
		if c.Archive.BatchSize < 1 {
			return errors.New("archive.batch_size must be >= 1")
		}
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
