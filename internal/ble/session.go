package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/gocirculate/internal/ble/protocol"
)

// State is the connection state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// SessionOptions configures the session behavior.
type SessionOptions struct {
	WaitBudget      time.Duration // how long Send waits for the response notification
	ConnectTimeout  time.Duration // upper bound for a single connect attempt
	MTU             int           // max bytes per characteristic write
	InterChunkDelay time.Duration // delay between writes of a chunked command
}

// DefaultSessionOptions returns sensible defaults.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		WaitBudget:      time.Second,
		ConnectTimeout:  10 * time.Second,
		MTU:             protocol.DefaultMTU,
		InterChunkDelay: 20 * time.Millisecond,
	}
}

// Session owns the exclusive link to one appliance and exchanges one
// command/response pair at a time over it. Safe for concurrent use; callers
// are serialized.
type Session struct {
	adapter Adapter
	address string
	opts    SessionOptions
	notes   *Notifications

	mu           sync.Mutex
	enabled      bool
	conn         Connection
	char         Characteristic
	state        State
	lastActivity time.Time
	gen          uint64 // bumped on every connect and teardown
}

// NewSession creates a disconnected session for the appliance at address.
func NewSession(adapter Adapter, address string, opts SessionOptions) *Session {
	def := DefaultSessionOptions()
	if opts.WaitBudget <= 0 {
		opts.WaitBudget = def.WaitBudget
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}
	if opts.MTU <= 0 {
		opts.MTU = def.MTU
	}
	if opts.InterChunkDelay < 0 {
		opts.InterChunkDelay = 0
	}
	return &Session{
		adapter: adapter,
		address: address,
		opts:    opts,
		notes:   NewNotifications(),
	}
}

// WithSession connects a session, runs fn and closes the session on every
// exit path so the exclusive link is never leaked.
func WithSession(ctx context.Context, adapter Adapter, address string, opts SessionOptions, fn func(*Session) error) error {
	s := NewSession(adapter, address, opts)
	defer s.Close()

	if err := s.Connect(ctx); err != nil {
		return err
	}
	return fn(s)
}

// Address returns the device address this session talks to.
func (s *Session) Address() string { return s.address }

// Notifications returns the buffer notifications are recorded into.
func (s *Session) Notifications() *Notifications { return s.notes }

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the link is currently up.
func (s *Session) Connected() bool {
	return s.State() == StateConnected
}

// LastActivity returns the time of the last connect or successful Send.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Connect establishes the link. It is a no-op when already connected.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

// connectLocked dials the device, discovers the characteristic and subscribes
// to its notifications (caller must hold mu).
func (s *Session) connectLocked(ctx context.Context) error {
	if s.state == StateConnected {
		return nil
	}

	if !s.enabled {
		if err := s.adapter.Enable(); err != nil {
			return fmt.Errorf("ble: enable adapter: %w: %w: %w", ErrConnect, ErrLinkUnavailable, err)
		}
		s.enabled = true
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	conn, err := s.adapter.Connect(ctx, s.address)
	if err != nil {
		return fmt.Errorf("ble: connect to %s: %w: %w: %w", s.address, ErrConnect, ErrLinkUnavailable, err)
	}

	char, err := conn.DiscoverCharacteristic(ServiceUUID, CharUUID)
	if err != nil {
		_ = conn.Disconnect()
		return fmt.Errorf("ble: discover characteristic on %s: %w: %w", s.address, ErrConnect, err)
	}

	if err := char.Subscribe(func(data []byte) {
		s.notes.Record(CharUUID, data)
	}); err != nil {
		_ = conn.Disconnect()
		return fmt.Errorf("ble: subscribe on %s: %w: %w", s.address, ErrConnect, err)
	}

	s.gen++
	gen := s.gen
	conn.OnDisconnect(func() {
		// The driver may invoke this while we hold mu inside Disconnect.
		go s.handleDrop(gen)
	})

	s.conn = conn
	s.char = char
	s.state = StateConnected
	s.lastActivity = time.Now()

	slog.Info("[BLE] connected", "mac", s.address)
	return nil
}

// handleDrop marks the session disconnected after the device dropped the
// link. Callbacks from connections already torn down are ignored.
func (s *Session) handleDrop(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != StateConnected {
		return
	}
	slog.Warn("[BLE] link dropped by device", "mac", s.address)
	s.teardownLocked()
}

// Send writes command and returns the trimmed text of the notification that
// answers it. A disconnected session connects first. Link and timeout
// failures leave the session disconnected so the next call starts clean.
func (s *Session) Send(ctx context.Context, command string) (string, error) {
	frame, err := protocol.Frame(command)
	if err != nil {
		return "", fmt.Errorf("ble: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return "", err
	}

	seen := s.notes.Seq()
	if err := s.writeLocked(frame); err != nil {
		s.teardownLocked()
		return "", fmt.Errorf("ble: send %q: %w: %w", command, ErrLinkWrite, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.WaitBudget)
	defer cancel()
	if err := s.notes.WaitAfter(waitCtx, seen); err != nil {
		s.teardownLocked()
		return "", fmt.Errorf("ble: send %q: %w after %s", command, ErrCommandTimeout, s.opts.WaitBudget)
	}

	n, err := s.notes.MostRecent()
	if err != nil {
		s.teardownLocked()
		return "", fmt.Errorf("ble: send %q: %w: %w", command, ErrCommandTimeout, err)
	}

	s.lastActivity = time.Now()
	resp := protocol.ParseResponse(n.Payload)
	slog.Debug("[BLE] exchange", "command", command, "response", resp)
	return resp, nil
}

// writeLocked writes frame in MTU-sized chunks (caller must hold mu).
func (s *Session) writeLocked(frame []byte) error {
	chunks := protocol.ChunkFrame(frame, s.opts.MTU)
	for i, chunk := range chunks {
		if err := s.char.Write(chunk); err != nil {
			return err
		}
		if i < len(chunks)-1 && s.opts.InterChunkDelay > 0 {
			time.Sleep(s.opts.InterChunkDelay)
		}
	}
	return nil
}

// Close disconnects the link. Safe to call repeatedly or on a session that
// never connected; it always returns nil.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		slog.Info("[BLE] closing link", "mac", s.address)
	}
	s.teardownLocked()
	return nil
}

// teardownLocked releases the connection handle, swallowing "not connected"
// errors from the driver (caller must hold mu).
func (s *Session) teardownLocked() {
	if s.conn != nil {
		if err := s.conn.Disconnect(); err != nil {
			slog.Debug("[BLE] disconnect", "mac", s.address, "error", err)
		}
	}
	s.gen++
	s.conn = nil
	s.char = nil
	s.state = StateDisconnected
}
