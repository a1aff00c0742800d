package marker

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/samber/lo"

	"github.com/objmap/mapcore/internal/sets"
	"github.com/objmap/mapcore/pkg/core"
)

// Manager keeps exactly one live group per enabled marker type.
type Manager struct {
	surface  Surface
	registry *Registry
	groups   map[string]*Group
	logger   *slog.Logger
}

// NewManager creates a manager attaching groups to s.
func NewManager(s Surface, registry *Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		surface:  s,
		registry: registry,
		groups:   make(map[string]*Group),
		logger:   logger,
	}
}

// Reconcile creates groups for enabled types that have none and destroys
// groups of disabled types, then updates every live group.
func (m *Manager) Reconcile(enabled sets.Set[string], data map[string][]core.RawMarker) {
	types := sets.New(slices.Collect(maps.Keys(data))...)
	for typ := range m.groups {
		types.Add(typ)
	}

	for _, typ := range sets.Sorted(types) {
		group, exists := m.groups[typ]
		if !enabled.Has(typ) {
			if exists {
				group.Destroy()
				delete(m.groups, typ)
				m.logger.Debug("marker group destroyed", "type", typ)
			}
			continue
		}
		if exists {
			continue
		}

		desc, ok := m.registry.Lookup(typ)
		if !ok {
			continue
		}
		markers := lo.Map(data[typ], func(raw core.RawMarker, _ int) Marker {
			return desc.New(raw)
		})
		group = NewGroup(markers, desc.PreloadPad, desc.UpdatesEnabled)
		m.groups[typ] = group
		group.AddToMap(m.surface)
		m.logger.Debug("marker group created", "type", typ, "markers", len(markers))
	}

	m.Update()
}

// Update re-evaluates marker visibility of every live group.
func (m *Manager) Update() {
	for _, g := range m.groups {
		g.Update(false)
	}
}

// Group returns the live group of a type.
func (m *Manager) Group(typ string) (*Group, bool) {
	g, ok := m.groups[typ]
	return g, ok
}

// Types returns the types with a live group, sorted.
func (m *Manager) Types() []string {
	return slices.Sorted(maps.Keys(m.groups))
}

// Destroy removes every group from the map.
func (m *Manager) Destroy() {
	for typ, g := range m.groups {
		g.Destroy()
		delete(m.groups, typ)
	}
}
