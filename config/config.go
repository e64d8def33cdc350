package config

import "time"

// AppConfig is the root configuration for a chatwatch instance.
type AppConfig struct {
	API      APIConfig      `yaml:"api"`
	Account  AccountConfig  `yaml:"account"`
	Socket   SocketConfig   `yaml:"socket"`
	Proxies  ProxiesConfig  `yaml:"proxies"`
	Recorder RecorderConfig `yaml:"recorder"`
}

// APIConfig holds REST API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	DeviceID   string        `yaml:"device_id"` // generated when empty
	UserAgent  string        `yaml:"user_agent"`
	Language   string        `yaml:"language"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// AccountConfig holds login credentials. Either email+password or a
// previously issued sid must be set.
type AccountConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	SID      string `yaml:"sid"`
}

// SocketConfig holds WebSocket session settings.
type SocketConfig struct {
	URL              string        `yaml:"url"`
	MaxReconnects    int           `yaml:"max_reconnects"`
	BackoffBase      time.Duration `yaml:"backoff_base"`
	BackoffMax       time.Duration `yaml:"backoff_max"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// ProxiesConfig maps scheme classes ("all://", "wss://", ...) to proxy URLs.
type ProxiesConfig map[string]string

// RecorderConfig holds chat archive settings.
type RecorderConfig struct {
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
