package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okaru/aminokit/proxymap"
)

// DefaultURL is the production WebSocket endpoint.
const DefaultURL = "wss://ws1.narvii.com"

// Errors
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrClosed           = errors.New("manager closed")
	ErrStaleConnection  = errors.New("connection stale (no ping)")
)

// ConnectionError is the terminal failure surfaced when the handshake or
// reconnect budget is exhausted.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// FrameDecodeError marks a malformed inbound frame. It is recovered
// internally by the reconnect path and never surfaced to callers.
type FrameDecodeError struct {
	Err error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v", e.Err)
}

func (e *FrameDecodeError) Unwrap() error {
	return e.Err
}

// Credentials authenticate the WebSocket handshake.
type Credentials struct {
	SID      string // session token, without the "sid=" prefix
	DeviceID string
}

// Frame is one message exchanged over the socket: a type discriminator and
// an opaque payload.
type Frame struct {
	Type    int             `json:"t"`
	Payload json.RawMessage `json:"o"`
}

// decodeFrame parses raw bytes into a Frame, rejecting envelopes without a
// type discriminator.
func decodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, &FrameDecodeError{Err: err}
	}
	if f.Type == 0 {
		return Frame{}, &FrameDecodeError{Err: errors.New("missing type discriminator")}
	}
	return f, nil
}

// Handler receives every dispatched frame of its registered type.
type Handler func(Frame)

// Config configures a Manager.
type Config struct {
	URL              string        // WebSocket URL
	MaxReconnects    int           // reconnect budget: consecutive failed attempts before giving up
	BackoffBase      time.Duration // first reconnect wait
	BackoffMax       time.Duration // cap for the exponential backoff
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration // keepalive ping cadence
	PingTimeout      time.Duration // max silence before the connection counts as stale
	BufferSize       int           // inbound frame channel depth
	Proxies          proxymap.Map  // optional outbound proxy routing
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:              DefaultURL,
		MaxReconnects:    5,
		BackoffBase:      time.Second,
		BackoffMax:       30 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		BufferSize:       256,
	}
}

// withDefaults fills zero fields so a sparse literal still works.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = d.MaxReconnects
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = d.BackoffBase
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = d.BackoffMax
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = d.PingTimeout
	}
	if c.BufferSize == 0 {
		c.BufferSize = d.BufferSize
	}
	return c
}
