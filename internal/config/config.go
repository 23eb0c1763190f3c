package config

import "time"

// ViewerConfig is the root configuration for a viewer instance.
type ViewerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this viewer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds push endpoint settings. ClientID is usually left empty
// and generated once per process.
type ServerConfig struct {
	URL                string        `yaml:"url"` // ws:// or wss:// push endpoint
	Topic              string        `yaml:"topic"`
	ClientID           string        `yaml:"client_id"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	MessageBufferSize  int           `yaml:"message_buffer_size"`
}

// EngineConfig holds reconciliation engine settings.
type EngineConfig struct {
	BacklogLimit int `yaml:"backlog_limit"`
	EventBuffer  int `yaml:"event_buffer"`
}

// ArchiveConfig holds the optional tick archive settings.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HealthConfig holds the health/debug HTTP endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
