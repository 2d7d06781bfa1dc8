package config

import "time"

// ConsoleConfig is the root configuration for a console sync instance.
type ConsoleConfig struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Sync       SyncConfig       `yaml:"sync"`
	Connection ConnectionConfig `yaml:"connection"`
	Journal    JournalConfig    `yaml:"journal"`
	Health     HealthConfig     `yaml:"health"`
}

// InstanceConfig identifies this console instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// SyncConfig holds the sync endpoint and target store.
type SyncConfig struct {
	URL     string `yaml:"url"`      // WebSocket endpoint (e.g., wss://sync.example.com/console/stream)
	Token   string `yaml:"token"`    // Bearer credential, passed as a query parameter
	StoreID int64  `yaml:"store_id"` // The store whose order stream to follow
}

// ConnectionConfig holds transport and reconnect settings.
type ConnectionConfig struct {
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// JournalConfig holds the optional event journal settings.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
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

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
