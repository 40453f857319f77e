package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/metrics"
)

// DefaultIdleTTL is how long an untouched session lives.
const DefaultIdleTTL = 30 * time.Minute

// Config holds the collaborators shared by every session.
type Config struct {
	// NewSearcher returns a fresh dispatcher per session; supersession is
	// scoped to one session.
	NewSearcher func() Searcher
	Composer    Composer
	Recents     Recents
	Navigator   Navigator
	IdleTTL     time.Duration
	Logger      *zap.Logger
}

// Manager is the registry of live sessions.
type Manager struct {
	cfg  Config
	now  func() time.Time
	ctx  context.Context
	stop context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty registry.
func NewManager(cfg Config) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		now:      time.Now,
		ctx:      ctx,
		stop:     stop,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := newSession(
		m.ctx, id,
		m.cfg.NewSearcher(), m.cfg.Composer, m.cfg.Recents, m.cfg.Navigator,
		m.cfg.Logger, m.now,
	)

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	m.cfg.Logger.Debug("session created", zap.String("session_id", id))
	return s
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	return s, nil
}

// Delete closes and unregisters a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	s.Close()
	metrics.SessionsActive.Set(float64(n))
	return nil
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.cfg.IdleTTL {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	metrics.SessionsActive.Set(float64(n))
	if len(expired) > 0 {
		m.cfg.Logger.Info("idle sessions swept", zap.Int("count", len(expired)), zap.Int("active", n))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep()
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close aborts every session.
func (m *Manager) Close() {
	m.stop()

	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	metrics.SessionsActive.Set(0)
}
