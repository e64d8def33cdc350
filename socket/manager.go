package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State describes the manager's connection lifecycle.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Manager owns one live WebSocket connection to the event stream, dispatches
// inbound frames to registered handlers, and reconnects transparently on
// failure. Handlers registered once keep receiving frames across reconnects.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	// mu guards replacement of the current connection.
	mu      sync.Mutex
	conn    *conn
	creds   Credentials
	started bool

	handlersMu sync.RWMutex
	handlers   map[int][]Handler

	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once

	errMu   sync.Mutex
	termErr error

	wg sync.WaitGroup
}

// NewManager creates a Manager. The zero fields of cfg take defaults.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		handlers: make(map[int][]Handler),
		done:     make(chan struct{}),
	}
}

// On registers a handler for a frame type. Multiple handlers per type are
// allowed; each matching frame invokes them in registration order.
// Registrations survive reconnects and are never cleared.
func (m *Manager) On(msgType int, h Handler) {
	m.handlersMu.Lock()
	m.handlers[msgType] = append(m.handlers[msgType], h)
	m.handlersMu.Unlock()
}

// Connect establishes the connection, retrying the handshake within the
// reconnect budget, and starts the listener. It returns a *ConnectionError
// once the budget is exhausted.
func (m *Manager) Connect(ctx context.Context, creds Credentials) error {
	if m.Closed() {
		return ErrClosed
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.started = true
	m.creds = creds
	m.mu.Unlock()

	m.state.Store(int32(StateConnecting))

	c, err := m.dialWithBudget(ctx)
	if err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()

		if connErr, ok := err.(*ConnectionError); ok {
			m.shutdown(connErr)
		}
		return err
	}

	m.mu.Lock()
	m.conn = c
	m.mu.Unlock()
	m.state.Store(int32(StateOpen))

	m.wg.Add(1)
	go m.listen(c)

	return nil
}

// dialWithBudget dials until success or until the budget is spent. The first
// attempt fires immediately; later attempts back off exponentially.
func (m *Manager) dialWithBudget(ctx context.Context) (*conn, error) {
	wait := m.cfg.BackoffBase
	var lastErr error

	for attempt := 0; attempt <= m.cfg.MaxReconnects; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-m.done:
				return nil, ErrClosed
			case <-time.After(wait):
			}
			wait *= 2
			if wait > m.cfg.BackoffMax {
				wait = m.cfg.BackoffMax
			}
		}

		c, err := dial(ctx, m.cfg, m.credentials(), m.logger)
		if err != nil {
			lastErr = err
			m.logger.Warn("handshake failed", "attempt", attempt, "error", err)
			continue
		}
		return c, nil
	}

	return nil, &ConnectionError{Attempts: m.cfg.MaxReconnects + 1, Err: lastErr}
}

func (m *Manager) credentials() Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds
}

// Send writes a frame on the current connection. It fails with
// ErrNotConnected when no connection is open; frames are never queued.
func (m *Manager) Send(frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return m.sendBytes(data)
}

// SendPayload marshals payload and sends it as a frame of the given type.
func (m *Manager) SendPayload(msgType int, payload any) error {
	o, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return m.Send(Frame{Type: msgType, Payload: o})
}

func (m *Manager) sendBytes(data []byte) error {
	m.mu.Lock()
	c := m.conn
	m.mu.Unlock()

	if c == nil || !c.isConnected() {
		return ErrNotConnected
	}
	return c.send(data)
}

// Close tears the connection down and stops all reconnect activity,
// unblocking any pending read or backoff wait. Idempotent.
func (m *Manager) Close() error {
	m.state.Store(int32(StateClosing))
	m.shutdown(nil)

	m.mu.Lock()
	c := m.conn
	m.conn = nil
	m.mu.Unlock()

	if c != nil {
		c.close()
	}
	m.state.Store(int32(StateClosed))
	return nil
}

// Closed reports whether the manager was explicitly closed or exhausted its
// reconnect budget. It stays false while connected and during reconnect
// attempts.
func (m *Manager) Closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Done is closed when the manager reaches its terminal state.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Err returns the terminal *ConnectionError after the reconnect budget was
// exhausted, and nil after an explicit Close.
func (m *Manager) Err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.termErr
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Wait blocks until the listener goroutine has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) shutdown(err error) {
	m.closeOnce.Do(func() {
		m.errMu.Lock()
		m.termErr = err
		m.errMu.Unlock()
		if err != nil {
			m.state.Store(int32(StateClosed))
		}
		close(m.done)
	})
}

// listen is the single background loop: it reads frames off the current
// connection, dispatches them, and drives the reconnect path on failure.
func (m *Manager) listen(c *conn) {
	defer m.wg.Done()

	current := c
	for {
		select {
		case <-m.done:
			return

		case err := <-current.errs:
			m.logger.Warn("connection lost", "error", err)
			next, ok := m.reconnect()
			if !ok {
				return
			}
			current = next

		case raw, ok := <-current.frames:
			if !ok {
				return
			}
			frame, err := decodeFrame(raw)
			if err != nil {
				// A malformed frame is handled like a disconnect: tear
				// down and reconnect. It never reaches a handler.
				m.logger.Warn("malformed frame", "error", err)
				next, ok := m.reconnect()
				if !ok {
					return
				}
				current = next
				continue
			}
			m.dispatch(frame)
		}
	}
}

// dispatch invokes every handler registered for the frame type, in
// registration order.
func (m *Manager) dispatch(f Frame) {
	m.handlersMu.RLock()
	hs := m.handlers[f.Type]
	m.handlersMu.RUnlock()

	for _, h := range hs {
		h(f)
	}
}

// reconnect fully tears down the previous connection, then redials with
// backoff until success or until the budget is spent. A successful open
// resets the attempt counter for the next failure.
func (m *Manager) reconnect() (*conn, bool) {
	m.mu.Lock()
	if m.conn != nil {
		m.conn.close()
		m.conn = nil
	}
	m.mu.Unlock()

	if m.Closed() {
		return nil, false
	}
	m.state.Store(int32(StateConnecting))

	wait := m.cfg.BackoffBase
	var lastErr error

	for attempt := 1; attempt <= m.cfg.MaxReconnects; attempt++ {
		select {
		case <-m.done:
			return nil, false
		case <-time.After(wait):
		}
		wait *= 2
		if wait > m.cfg.BackoffMax {
			wait = m.cfg.BackoffMax
		}

		m.logger.Info("attempting reconnection", "attempt", attempt)

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.HandshakeTimeout)
		c, err := dial(ctx, m.cfg, m.credentials(), m.logger)
		cancel()
		if err != nil {
			lastErr = err
			m.logger.Warn("reconnection failed", "attempt", attempt, "error", err)
			continue
		}

		m.mu.Lock()
		if m.Closed() {
			// Close won the race while dialing.
			m.mu.Unlock()
			c.close()
			return nil, false
		}
		m.conn = c
		m.mu.Unlock()

		m.state.Store(int32(StateOpen))
		m.logger.Info("reconnected", "attempt", attempt)
		return c, true
	}

	m.shutdown(&ConnectionError{Attempts: m.cfg.MaxReconnects, Err: lastErr})
	return nil, false
}
