package ble

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// IdleOptions configures the idle-timeout supervisor.
type IdleOptions struct {
	Timeout   time.Duration // close the link after this long without a command
	Heartbeat time.Duration // how often the idle check runs while connected
}

// DefaultIdleOptions returns sensible defaults.
func DefaultIdleOptions() IdleOptions {
	return IdleOptions{
		Timeout:   60 * time.Second,
		Heartbeat: 20 * time.Second,
	}
}

// IdleSession keeps a Session open across bursts of commands and closes it
// once no command has been sent for the idle timeout. The next Send
// reconnects through the session's implicit connect.
type IdleSession struct {
	session *Session
	opts    IdleOptions

	mu    sync.Mutex
	last  time.Time
	timer *time.Timer
	epoch uint64 // identifies the pending heartbeat; stale ones return early
}

// NewIdleSession wraps session with an idle-timeout supervisor.
func NewIdleSession(session *Session, opts IdleOptions) *IdleSession {
	def := DefaultIdleOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = def.Heartbeat
	}
	return &IdleSession{session: session, opts: opts}
}

// Session returns the wrapped session.
func (s *IdleSession) Session() *Session { return s.session }

// Connected reports whether the wrapped session holds the link.
func (s *IdleSession) Connected() bool { return s.session.Connected() }

// Send delegates to the session and, on success, records the activity and
// arms the idle check if none is pending.
func (s *IdleSession) Send(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.session.Send(ctx, command)
	if err != nil {
		return "", err
	}

	s.last = time.Now()
	if s.timer == nil {
		s.armLocked()
		slog.Debug("[BLE] idle monitor started", "timeout", s.opts.Timeout)
	}
	return resp, nil
}

// Armed reports whether an idle check is pending.
func (s *IdleSession) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// armLocked schedules the next idle check (caller must hold mu).
func (s *IdleSession) armLocked() {
	s.epoch++
	epoch := s.epoch
	s.timer = time.AfterFunc(s.opts.Heartbeat, func() { s.heartbeat(epoch) })
}

// heartbeat closes the session once it has been idle for longer than the
// timeout, otherwise schedules one more check.
func (s *IdleSession) heartbeat(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.timer = nil

	if !s.session.Connected() {
		return
	}

	idle := time.Since(s.last)
	if idle > s.opts.Timeout {
		slog.Info("[BLE] idle timeout, closing link", "last_command", s.last.Format(time.RFC3339))
		_ = s.session.Close()
		return
	}

	s.armLocked()
	slog.Debug("[BLE] idle check", "remaining", (s.opts.Timeout - idle).Round(time.Millisecond))
}

// Close cancels the pending idle check and closes the session.
func (s *IdleSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.epoch++
	return s.session.Close()
}
