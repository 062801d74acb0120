// Package sessions keeps the registry of live editing sessions. Each session
// owns exactly one record-set controller; sessions are created by loading a
// record set and are never persisted.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/recordset"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL is the idle time after which a session is evicted
const DefaultTTL = 30 * time.Minute

// ErrSessionNotFound is returned for unknown or closed session ids
var ErrSessionNotFound = errors.New("session not found")

// Manager creates, looks up and evicts editing sessions
type Manager struct {
	client   catalogapi.Client
	cfg      types.Config
	logger   *zap.Logger
	ttl      time.Duration
	debounce time.Duration
	now      func() time.Time
	idFunc   func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option is a function that modifies Manager configuration
type Option func(*Manager)

// WithConfig sets the field schema of new sessions
func WithConfig(cfg types.Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithTTL sets the idle eviction timeout; non-positive disables eviction
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithDebounce sets the change notification quiet interval
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

// WithClock sets the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDFunc sets the session id generator
func WithIDFunc(fn func() string) Option {
	return func(m *Manager) { m.idFunc = fn }
}

// NewManager creates a manager whose sessions load from and submit to client
func NewManager(client catalogapi.Client, opts ...Option) *Manager {
	m := &Manager{
		client:   client,
		cfg:      types.DefaultConfig(),
		logger:   zap.NewNop(),
		ttl:      DefaultTTL,
		debounce: recordset.DefaultDebounce,
		now:      time.Now,
		idFunc:   func() string { return uuid.New().String() },
		sessions: map[string]*Session{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a session and loads sourceID into it. A failed load leaves
// no session behind.
func (m *Manager) Create(ctx context.Context, sourceID string) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:        m.idFunc(),
		SourceID:  sourceID,
		CreatedAt: now,
		lastUsed:  now,
		subs:      map[int]chan []types.Change{},
	}
	s.logger = m.logger.With(zap.String("session", s.ID))
	s.notifier = recordset.NewNotifier(m.debounce, s.broadcast)
	s.Controller = recordset.New(m.client,
		recordset.WithConfig(m.cfg),
		recordset.WithLogger(s.logger),
		recordset.WithNotifier(s.notifier),
	)

	if _, err := s.Controller.Load(ctx, sourceID); err != nil {
		s.close()
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("session", s.ID), zap.String("source", sourceID))
	return s, nil
}

// Get returns a live session and marks it used
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	s.touch(m.now())
	return s, nil
}

// Close ends a session, discarding its controller
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	s.close()
	m.logger.Info("session closed", zap.String("session", id))
	return nil
}

// List returns the live sessions ordered by creation time
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle closes every session unused for longer than the TTL and returns
// how many were closed
func (m *Manager) EvictIdle() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.close()
		m.logger.Info("session evicted", zap.String("session", s.ID), zap.Time("last_used", s.LastUsed()))
	}
	return len(idle)
}

// Run evicts idle sessions every interval until ctx is done, then closes
// every remaining session
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// Shutdown closes every session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
	if len(all) > 0 {
		m.logger.Info("sessions closed", zap.Int("count", len(all)))
	}
}
