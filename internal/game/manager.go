package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/daily-decree/internal/newspaper"
)

// Manager owns the live sessions and their persistence.
type Manager struct {
	deps  Deps
	store Store

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager. store may be nil, in which case nothing is saved.
func NewManager(deps Deps, store Store) *Manager {
	return &Manager{
		deps:     deps,
		store:    store,
		sessions: make(map[string]*Session),
	}
}

// NewGame starts a campaign, registers it and auto-saves the first issue.
func (m *Manager) NewGame(ctx context.Context, country newspaper.Country, leader string, progress Progress) (*Session, error) {
	s, err := Start(ctx, m.deps, country, leader, progress)
	if err != nil {
		return nil, err
	}
	m.add(s)
	if err := m.Save(ctx, s); err != nil {
		slog.Warn("auto-save failed", "session", s.ID, "error", err)
	}
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[s.ID]; ok && old != s {
		old.Close()
	}
	m.sessions[s.ID] = s
}

// Exit destroys a live session. Unsaved progress is lost.
func (m *Manager) Exit(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	slog.Info("session ended", "session", id)
	return nil
}

// Restart destroys a session and starts a fresh campaign for the same country.
func (m *Manager) Restart(ctx context.Context, id string, progress Progress) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	country := s.Country
	if err := m.Exit(id); err != nil {
		return nil, err
	}
	return m.NewGame(ctx, country, "", progress)
}

// Save writes the session's current snapshot to the store.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if m.store == nil {
		return nil
	}
	f := s.Snapshot()
	if err := m.store.Save(ctx, f); err != nil {
		return fmt.Errorf("save %s: %w", s.ID, err)
	}
	slog.Debug("game saved", "session", s.ID, "turn", f.TurnCount)
	return nil
}

// Load restores a saved game into a live session, replacing any live
// session with the same id.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	f, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	s, err := Restore(m.deps, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	m.add(s)
	slog.Info("game loaded", "session", id, "turn", s.Turn())
	return s, nil
}

// List returns the index of saved games.
func (m *Manager) List(ctx context.Context) ([]SaveMetadata, error) {
	if m.store == nil {
		return []SaveMetadata{}, nil
	}
	return m.store.List(ctx)
}

// Delete removes a saved game. Live sessions are unaffected.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// Export returns the session as a portable document and its suggested file name.
func (m *Manager) Export(s *Session) ([]byte, string, error) {
	f := s.Snapshot()
	data, err := Encode(f)
	if err != nil {
		return nil, "", fmt.Errorf("export %s: %w", s.ID, err)
	}
	return data, ExportFilename(f.Metadata), nil
}

// Import validates a document and writes it to the store under its own id,
// overwriting any save with that id.
func (m *Manager) Import(ctx context.Context, data []byte) (*SaveMetadata, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if m.store != nil {
		if err := m.store.Save(ctx, f); err != nil {
			return nil, fmt.Errorf("import %s: %w", f.Metadata.ID, err)
		}
	}
	return &f.Metadata, nil
}
