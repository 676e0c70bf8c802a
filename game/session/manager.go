package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/internal/obslog"
)

// ErrSessionNotFound is the NoSessionFound rejection.
var ErrSessionNotFound = engine.ErrNoSessionFound

// Manager is the in-memory registry of live games. The map lock only guards
// lookups; each Game serialises its own moves.
type Manager struct {
	sessions map[string]*engine.Game
	archive  Archive
	logger   *zap.Logger
	newID    func() (string, error)
	gameOpts []engine.Option
	mu       sync.RWMutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithArchive mirrors snapshots to a after creation and on Save.
func WithArchive(a Archive) ManagerOption {
	return func(m *Manager) { m.archive = a }
}

// WithLogger sets the logger. Defaults to obslog.L().
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(fn func() (string, error)) ManagerOption {
	return func(m *Manager) { m.newID = fn }
}

// WithGameOptions passes options to every new Game.
func WithGameOptions(opts ...engine.Option) ManagerOption {
	return func(m *Manager) { m.gameOpts = append(m.gameOpts, opts...) }
}

// NewManager creates an empty registry.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*engine.Game),
		newID:    newSessionID,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = obslog.L()
	}
	return m
}

// Create starts a new game and returns its id and initial snapshot.
func (m *Manager) Create(ctx context.Context, variant engine.Variant, human engine.Side) (string, *engine.Snapshot, error) {
	id, err := m.newID()
	if err != nil {
		return "", nil, fmt.Errorf("generate session id: %w", err)
	}

	g, err := engine.NewGame(id, variant, human, m.gameOpts...)
	if err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		m.mu.Unlock()
		return "", nil, fmt.Errorf("session id collision: %s", id)
	}
	m.sessions[strings.ToLower(id)] = g
	m.mu.Unlock()

	snap := g.Snapshot()
	m.mirror(ctx, snap)

	m.logger.Info("session created",
		zap.String("session", id),
		zap.String("variant", string(variant)),
		zap.String("human", string(snap.HumanSide)))
	return id, snap, nil
}

// Get looks a session up, ignoring case.
func (m *Manager) Get(id string) (*engine.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.sessions[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return g, nil
}

// List returns all live games, oldest first.
func (m *Manager) List() []*engine.Game {
	m.mu.RLock()
	out := make([]*engine.Game, 0, len(m.sessions))
	for _, g := range m.sessions {
		out = append(out, g)
	}
	m.mu.RUnlock()

	// UUIDv7 ids sort by creation time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Count returns the number of live games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Save mirrors the current snapshot of id to the archive, if one is set.
func (m *Manager) Save(ctx context.Context, id string) error {
	if m.archive == nil {
		return nil
	}
	g, err := m.Get(id)
	if err != nil {
		return err
	}
	return m.archive.Save(ctx, g.Snapshot())
}

// SaveAll mirrors every live game. Used on shutdown.
func (m *Manager) SaveAll(ctx context.Context) error {
	if m.archive == nil {
		return nil
	}
	var errs []error
	for _, g := range m.List() {
		if err := m.archive.Save(ctx, g.Snapshot()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", g.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Archived reads a snapshot back from the archive. It does not revive the
// session.
func (m *Manager) Archived(ctx context.Context, id string) (*engine.Snapshot, error) {
	if m.archive == nil {
		return nil, ErrNotArchived
	}
	return m.archive.Load(ctx, id)
}

// HasArchive reports whether an archive is configured.
func (m *Manager) HasArchive() bool { return m.archive != nil }

func (m *Manager) mirror(ctx context.Context, snap *engine.Snapshot) {
	if m.archive == nil {
		return
	}
	if err := m.archive.Save(ctx, snap); err != nil {
		m.logger.Warn("failed to archive session", zap.String("session", snap.ID), zap.Error(err))
	}
}

func newSessionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
