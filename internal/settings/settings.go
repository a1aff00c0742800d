// Package settings holds the per-client map settings and persists them
// through a repository.
package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/objmap/mapcore/internal/sets"
	"github.com/objmap/mapcore/pkg/core"
)

// DefaultShownGroups are the marker types shown to a new client.
var DefaultShownGroups = []string{"Location", "Dungeon", "Place", "Tower", "Shop", "Labo"}

// SearchGroup is a saved search group.
type SearchGroup struct {
	Query   string `json:"query"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Settings is the state shared with the settings pane.
type Settings struct {
	ShownGroups      sets.Set[string]
	SearchGroups     []SearchGroup
	DrawLayerGeoJSON string
	HardMode         bool
	// LastView is nil until a view was saved.
	LastView *core.Viewport
}

// Defaults returns the settings of a new client.
func Defaults() Settings {
	return Settings{ShownGroups: sets.New(DefaultShownGroups...)}
}

func (s Settings) clone() Settings {
	c := s
	c.ShownGroups = s.ShownGroups.Clone()
	c.SearchGroups = append([]SearchGroup(nil), s.SearchGroups...)
	if s.LastView != nil {
		v := *s.LastView
		c.LastView = &v
	}
	return c
}

// Repository loads and saves the settings of a client.
type Repository interface {
	Load(ctx context.Context, clientID uuid.UUID) (Settings, bool, error)
	Save(ctx context.Context, clientID uuid.UUID, s Settings) error
}

// Store is the settings of one client. It is owned by the session loop.
type Store struct {
	clientID uuid.UUID
	repo     Repository
	logger   *slog.Logger

	current    Settings
	callbacks  []func()
	beforeSave []func()
}

// NewStore creates a store holding the defaults. A nil repository keeps
// the settings in memory only.
func NewStore(clientID uuid.UUID, repo Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{clientID: clientID, repo: repo, logger: logger, current: Defaults()}
}

// ClientID returns the id the settings are saved under.
func (s *Store) ClientID() uuid.UUID { return s.clientID }

// Load replaces the current settings with the saved ones, if any. Callbacks
// are not fired.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	saved, ok, err := s.repo.Load(ctx, s.clientID)
	if err != nil {
		return fmt.Errorf("failed to load settings for %s: %w", s.clientID, err)
	}
	if ok {
		if saved.ShownGroups == nil {
			saved.ShownGroups = sets.New[string]()
		}
		s.current = saved
	}
	return nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings { return s.current.clone() }

// ShownGroups returns the enabled marker types.
func (s *Store) ShownGroups() sets.Set[string] { return s.current.ShownGroups.Clone() }

// HardMode reports whether hard mode objects are highlighted.
func (s *Store) HardMode() bool { return s.current.HardMode }

// DrawLayerGeoJSON returns the stored draw layer.
func (s *Store) DrawLayerGeoJSON() string { return s.current.DrawLayerGeoJSON }

// SearchGroups returns the saved search groups.
func (s *Store) SearchGroups() []SearchGroup {
	return append([]SearchGroup(nil), s.current.SearchGroups...)
}

// LastView returns the saved viewport.
func (s *Store) LastView() (core.Viewport, bool) {
	if s.current.LastView == nil {
		return core.Viewport{}, false
	}
	return *s.current.LastView, true
}

// SetDrawLayerGeoJSON stores the draw layer without notifying.
func (s *Store) SetDrawLayerGeoJSON(v string) { s.current.DrawLayerGeoJSON = v }

// SetSearchGroups stores the search groups without notifying.
func (s *Store) SetSearchGroups(groups []SearchGroup) {
	s.current.SearchGroups = append([]SearchGroup(nil), groups...)
}

// SetLastView stores the viewport without notifying.
func (s *Store) SetLastView(v core.Viewport) { s.current.LastView = &v }

// RegisterCallback registers cb to run after every Update.
func (s *Store) RegisterCallback(cb func()) { s.callbacks = append(s.callbacks, cb) }

// RegisterBeforeSaveCallback registers cb to run right before Save writes,
// so components can flush their state into the store.
func (s *Store) RegisterBeforeSaveCallback(cb func()) {
	s.beforeSave = append(s.beforeSave, cb)
}

// Update applies the values changed in the settings pane and notifies the
// callbacks.
func (s *Store) Update(shownGroups sets.Set[string], hardMode bool) {
	s.current.ShownGroups = shownGroups.Clone()
	s.current.HardMode = hardMode
	for _, cb := range s.callbacks {
		cb()
	}
}

// Save runs the before-save callbacks and writes the settings.
func (s *Store) Save(ctx context.Context) error {
	for _, cb := range s.beforeSave {
		cb()
	}
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, s.clientID, s.current.clone()); err != nil {
		return fmt.Errorf("failed to save settings for %s: %w", s.clientID, err)
	}
	s.logger.Debug("settings saved", "client", s.clientID)
	return nil
}
