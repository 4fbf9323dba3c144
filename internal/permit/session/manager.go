package session

import (
	"context"
	"sync"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/common/metrics"
)

const DefaultIdleTimeout = time.Hour

// Manager owns the open sessions. Sessions never share state with each other.
type Manager struct {
	opts        Options
	deps        deps
	idleTimeout time.Duration
	logger      logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

type ManagerOption func(*Manager)

func WithLauncher(l Launcher) ManagerOption {
	return func(m *Manager) { m.deps.launcher = l }
}

func WithDemoData(d DemoData) ManagerOption {
	return func(m *Manager) { m.deps.demo = d }
}

func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.deps.now = now }
}

func NewManager(opts Options, repo Repository, log logger.Logger, options ...ManagerOption) *Manager {
	m := &Manager{
		opts:        opts,
		idleTimeout: DefaultIdleTimeout,
		logger:      log.WithFields(map[string]interface{}{"component": "session-manager"}),
		sessions:    make(map[string]*Session),
		deps: deps{
			repo:   repo,
			logger: log,
			now:    time.Now,
		},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Create opens a session. With prefill the demo values and documents are
// loaded the way the public demo starts.
func (m *Manager) Create(prefill bool) (*Session, error) {
	s := newSession(m.opts, m.deps)
	if prefill {
		if err := s.AttachDemoFiles(); err != nil {
			s.Close()
			return nil, err
		}
		if err := s.FillDemo(); err != nil {
			s.Close()
			return nil, err
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	m.logger.Debug("session created", map[string]interface{}{
		"sessionId": s.ID,
		"prefill":   prefill,
	})
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NewSessionNotFoundError(id)
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return errors.NewSessionNotFoundError(id)
	}
	s.Close()
	metrics.ActiveSessions.Set(float64(count))
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns how
// many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.deps.now().Add(-m.idleTimeout)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		metrics.ActiveSessions.Set(float64(count))
		m.logger.Info("expired idle sessions", map[string]interface{}{
			"expired":   len(expired),
			"remaining": count,
		})
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	metrics.ActiveSessions.Set(0)
}
