package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL          = "https://service.aminoapps.com/api/v1"
	DefaultSocketURL        = "wss://ws1.narvii.com"
	DefaultAPITimeout       = 20 * time.Second
	DefaultMaxRetries       = 3
	DefaultLanguage         = "en-US"
	DefaultMaxReconnects    = 5
	DefaultBackoffBase      = 1 * time.Second
	DefaultBackoffMax       = 30 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPingTimeout      = 90 * time.Second
	DefaultSocketBuffer     = 256
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultBatchSize        = 500
	DefaultFlushInterval    = 1 * time.Second
	DefaultBufferSize       = 5000
)

func (c *AppConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.Language == "" {
		c.API.Language = DefaultLanguage
	}

	// Socket defaults
	if c.Socket.URL == "" {
		c.Socket.URL = DefaultSocketURL
	}
	if c.Socket.MaxReconnects == 0 {
		c.Socket.MaxReconnects = DefaultMaxReconnects
	}
	if c.Socket.BackoffBase == 0 {
		c.Socket.BackoffBase = DefaultBackoffBase
	}
	if c.Socket.BackoffMax == 0 {
		c.Socket.BackoffMax = DefaultBackoffMax
	}
	if c.Socket.HandshakeTimeout == 0 {
		c.Socket.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Socket.PingInterval == 0 {
		c.Socket.PingInterval = DefaultPingInterval
	}
	if c.Socket.PingTimeout == 0 {
		c.Socket.PingTimeout = DefaultPingTimeout
	}
	if c.Socket.BufferSize == 0 {
		c.Socket.BufferSize = DefaultSocketBuffer
	}

	// Recorder defaults
	if c.Recorder.Enabled {
		applyDBDefaults(&c.Recorder.Database)
		if c.Recorder.BatchSize == 0 {
			c.Recorder.BatchSize = DefaultBatchSize
		}
		if c.Recorder.FlushInterval == 0 {
			c.Recorder.FlushInterval = DefaultFlushInterval
		}
		if c.Recorder.BufferSize == 0 {
			c.Recorder.BufferSize = DefaultBufferSize
		}
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
