package socket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okaru/aminokit/sign"
)

// conn wraps a single WebSocket connection. It is replaced, never reused,
// across reconnects.
type conn struct {
	cfg    Config
	logger *slog.Logger

	ws *websocket.Conn

	// Output channels
	frames chan []byte
	errs   chan error
	done   chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	connected  bool
	closed     bool
	lastPingAt time.Time
}

// dial establishes one signed WebSocket connection and starts its read and
// heartbeat loops.
func dial(ctx context.Context, cfg Config, creds Credentials, logger *slog.Logger) (*conn, error) {
	signBody := fmt.Sprintf("%s|%d", creds.DeviceID, time.Now().UnixMilli())

	header := http.Header{}
	header.Set("NDCDEVICEID", creds.DeviceID)
	header.Set("NDCAUTH", "sid="+creds.SID)
	header.Set("NDC-MSG-SIG", sign.Signature([]byte(signBody)))

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	if cfg.Proxies != nil {
		if err := cfg.Proxies.Apply(&dialer, cfg.URL); err != nil {
			return nil, fmt.Errorf("apply proxy map: %w", err)
		}
	}

	ws, _, err := dialer.DialContext(ctx, cfg.URL+"/?signbody="+url.QueryEscape(signBody), header)
	if err != nil {
		return nil, err
	}

	c := &conn{
		cfg:        cfg,
		logger:     logger,
		ws:         ws,
		frames:     make(chan []byte, cfg.BufferSize),
		errs:       make(chan error, 1),
		done:       make(chan struct{}),
		connected:  true,
		lastPingAt: time.Now(),
	}

	// Server pings are answered with pongs; both refresh liveness.
	ws.SetPingHandler(func(data string) error {
		c.touch()
		return ws.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})
	ws.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	go c.readLoop()
	go c.heartbeatLoop()

	logger.Debug("websocket connected", "url", cfg.URL)
	return c, nil
}

func (c *conn) touch() {
	c.mu.Lock()
	c.lastPingAt = time.Now()
	c.mu.Unlock()
}

// close tears the connection down. Idempotent.
func (c *conn) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	close(c.done)

	c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}

// send writes raw bytes, serialized against concurrent sends.
func (c *conn) send(data []byte) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) isConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// readLoop pumps inbound messages into the frames channel until the
// connection drops.
func (c *conn) readLoop() {
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

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			// Ignore errors after close() is called
			select {
			case <-c.done:
			default:
				select {
				case c.errs <- err:
				default:
				}
			}
			return
		}

		select {
		case c.frames <- data:
		case <-c.done:
			return
		default:
			c.logger.Warn("frame buffer full, dropping frame")
		}
	}
}

// heartbeatLoop pings the server and flags stale connections.
func (c *conn) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}

			c.mu.RLock()
			lastPing := c.lastPingAt
			c.mu.RUnlock()

			if time.Since(lastPing) > c.cfg.PingTimeout {
				c.logger.Warn("no ping received, connection stale",
					"last_ping", lastPing,
					"timeout", c.cfg.PingTimeout,
				)
				select {
				case c.errs <- ErrStaleConnection:
				default:
				}
				return
			}
		}
	}
}
