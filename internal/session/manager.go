package session

import (
	"context"
	"sort"
	"sync"

	"github.com/aki/runpad/internal/logger"
	"github.com/aki/runpad/internal/metrics"
	"github.com/aki/runpad/internal/workspace"
)

// Manager is the process-wide registry mapping workspace id to its runtime
// session. It guarantees at most one live session per workspace id. The
// registry is an explicitly constructed instance owned by the hosting
// application, not ambient global state.
type Manager struct {
	cfg     Config
	log     logger.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty registry.
func NewManager(cfg Config, log logger.Logger, collector *metrics.Collector) *Manager {
	cfg.applyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		cfg:      cfg,
		log:      log,
		metrics:  collector,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the live session for workspaceID, replacing a stale
// (terminated) mapping if one lingers. The new session's termination signal
// is observed so the mapping is dropped when the session ends, including by
// idle self-termination.
func (m *Manager) GetOrCreate(workspaceID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[workspaceID]; ok {
		if !s.Terminated() {
			return s, nil
		}
		delete(m.sessions, workspaceID)
	}

	ws, err := workspace.Resolve(m.cfg.WorkspaceRoot, workspaceID)
	if err != nil {
		return nil, err
	}

	s := New(ws, m.cfg, m.log, m.metrics)
	m.sessions[workspaceID] = s
	m.metrics.SessionStarted()
	m.log.Info("session created", "workspace", workspaceID, "dir", ws.Dir)

	go func() {
		<-s.Done()
		m.remove(workspaceID, s)
	}()

	return s, nil
}

// Get returns the session for workspaceID if one is tracked.
func (m *Manager) Get(workspaceID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[workspaceID]
	return s, ok
}

// List returns the tracked workspace ids, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TerminateAll tears down every tracked session. Best-effort: termination
// never fails, so this simply drains the registry.
func (m *Manager) TerminateAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Terminate(ctx)
	}
	m.log.Info("all sessions terminated", "count", len(sessions))
}

// remove drops the mapping if it still points at the given session. A newer
// session registered under the same id is left alone.
func (m *Manager) remove(workspaceID string, s *Session) {
	m.mu.Lock()
	if current, ok := m.sessions[workspaceID]; ok && current == s {
		delete(m.sessions, workspaceID)
	}
	m.mu.Unlock()
	m.metrics.SessionEnded()
	m.log.Debug("session removed from registry", "workspace", workspaceID)
}
