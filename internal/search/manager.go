// Package search implements the live object search of the map, the
// persisted search groups and the exclusion sets applied to them.
//
// Every method of Manager must be called from the session loop. Requests to
// the search service run in the background through the loop's Scheduler and
// re-enter the loop with their results.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/objmap/mapcore/internal/dispatcher"
	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/marker"
	"github.com/objmap/mapcore/internal/radar"
	"github.com/objmap/mapcore/internal/sets"
	"github.com/objmap/mapcore/pkg/core"
	"github.com/objmap/mapcore/pkg/streaming"
)

const (
	// DefaultMaxResults caps the number of live search results.
	DefaultMaxResults = 2000
	// JumpZoom is the zoom level used when jumping to a result.
	JumpZoom = 6
)

var liveStyle = mapview.Style{FillColor: "#ffd200", StrokeColor: "#fff5a8", Radius: resultRadius}

// Provider resolves queries against the object search service.
type Provider interface {
	GetObjs(ctx context.Context, q radar.Query) ([]core.ObjectMinData, error)
	GetObjIDs(ctx context.Context, q radar.Query) ([]int64, error)
}

// DetailsOpener opens the details pane for a marker.
type DetailsOpener interface {
	OpenMarker(m marker.Marker, zoom int)
}

// Recorder receives the outcome of every request to the search service.
type Recorder interface {
	RecordSearch(kind, query string, results int, took time.Duration, err error)
}

// Request kinds passed to Recorder.
const (
	KindLive    = "live"
	KindGroup   = "group"
	KindExclude = "exclude"
)

// Dependencies holds all dependencies of a Manager.
type Dependencies struct {
	Surface  Surface
	Provider Provider
	Sched    dispatcher.Scheduler
	Details  DetailsOpener
	Recorder Recorder  // optional
	StyleOf  StyleFunc // optional
	Logger   *slog.Logger
}

// Config tunes a Manager.
type Config struct {
	Debounce   time.Duration
	MaxResults int
}

// Manager owns the live search, the search groups and the exclusion sets.
type Manager struct {
	ctx        context.Context
	deps       Dependencies
	maxResults int
	debouncer  *Debouncer
	onChange   func()

	query            string
	searching        bool
	lastSearchFailed bool
	lastErr          error
	results          []core.ObjectMinData
	resultMarkers    []*marker.SearchResult
	seq              uint64

	groups          []*ResultGroup
	excludes        []*ExcludeSet
	pendingGroups   sets.Set[string]
	pendingExcludes sets.Set[string]
	groupsCreated   int

	destroyed bool
}

// NewManager creates a manager. Requests to the search service use ctx.
func NewManager(ctx context.Context, deps Dependencies, cfg Config) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.StyleOf == nil {
		deps.StyleOf = func(_ core.ObjectMinData, base mapview.Style) mapview.Style { return base }
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	m := &Manager{
		ctx:             ctx,
		deps:            deps,
		maxResults:      cfg.MaxResults,
		pendingGroups:   sets.New[string](),
		pendingExcludes: sets.New[string](),
	}
	m.debouncer = NewDebouncer(cfg.Debounce, deps.Sched, m.ExecuteSearch)
	return m
}

// OnChange registers fn to be called after every visible state change.
func (m *Manager) OnChange(fn func()) { m.onChange = fn }

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}

func (m *Manager) record(kind, query string, n int, took time.Duration, err error) {
	if m.deps.Recorder != nil {
		m.deps.Recorder.RecordSearch(kind, query, n, took, err)
	}
}

// Query returns the live query as typed.
func (m *Manager) Query() string { return m.query }

// Searching reports whether a live search is scheduled or in flight.
func (m *Manager) Searching() bool { return m.searching }

// LastSearchFailed reports whether the last completed live search failed.
func (m *Manager) LastSearchFailed() bool { return m.lastSearchFailed }

// LastError returns the failure of the last group or exclusion request.
func (m *Manager) LastError() error { return m.lastErr }

// Results returns the live search results.
func (m *Manager) Results() []core.ObjectMinData { return m.results }

// ResultMarkers returns the markers of the live search results.
func (m *Manager) ResultMarkers() []*marker.SearchResult { return m.resultMarkers }

// Groups returns the persisted search groups in order.
func (m *Manager) Groups() []*ResultGroup { return m.groups }

// Excludes returns the exclusion sets in order.
func (m *Manager) Excludes() []*ExcludeSet { return m.excludes }

// SetQuery updates the live query and schedules a search once typing pauses.
func (m *Manager) SetQuery(text string) {
	if m.destroyed {
		return
	}
	m.query = text
	m.searching = true
	m.debouncer.Trigger()
	m.notify()
}

// ExecuteSearch replaces the live results with the results of the current
// query. Completions of superseded searches are discarded.
func (m *Manager) ExecuteSearch() {
	if m.destroyed {
		return
	}
	m.debouncer.Cancel()
	m.seq++
	seq := m.seq
	m.searching = true
	m.clearResults()

	query := NormalizeQuery(m.query)
	if query == "" {
		m.finishSearch(nil, nil)
		return
	}
	m.notify()

	start := time.Now()
	m.deps.Sched.Go(func() {
		objs, err := m.deps.Provider.GetObjs(m.ctx, radar.Query{
			MapType: radar.MainField,
			Query:   query,
			Limit:   m.maxResults,
		})
		took := time.Since(start)
		m.deps.Sched.Post(func() {
			if m.destroyed {
				return
			}
			m.record(KindLive, query, len(objs), took, err)
			if seq != m.seq {
				m.deps.Logger.Debug("discarding stale search results", "query", query, "seq", seq, "latest", m.seq)
				return
			}
			m.finishSearch(objs, err)
		})
	})
}

func (m *Manager) finishSearch(objs []core.ObjectMinData, err error) {
	m.clearResults()
	if err != nil {
		m.deps.Logger.Warn("search failed", "query", m.query, "error", err)
		m.results = nil
		m.lastSearchFailed = true
	} else {
		m.results = lo.Filter(objs, func(obj core.ObjectMinData, _ int) bool {
			return !m.excluded(obj.ObjID)
		})
		m.lastSearchFailed = false
	}

	for _, obj := range m.results {
		mk := marker.NewSearchResult(obj, m.deps.StyleOf(obj, liveStyle))
		m.resultMarkers = append(m.resultMarkers, mk)
		m.deps.Surface.AddLayer(mk)
	}
	m.searching = false
	m.notify()
}

func (m *Manager) clearResults() {
	for _, mk := range m.resultMarkers {
		m.deps.Surface.RemoveLayer(mk)
	}
	m.resultMarkers = nil
}

func (m *Manager) excluded(objID int64) bool {
	return lo.SomeBy(m.excludes, func(set *ExcludeSet) bool { return set.Has(objID) })
}

func (m *Manager) hasGroup(query string) bool {
	return m.pendingGroups.Has(query) || lo.SomeBy(m.groups, func(g *ResultGroup) bool {
		return g.Query == query
	})
}

// AddGroup resolves query into a new search group appended to the list. A
// query that is already a group, or being resolved into one, is ignored.
// An empty label defaults to the query.
func (m *Manager) AddGroup(query, label string) { m.addGroup(query, label, true) }

// RestoreGroup adds a saved group, hidden when enabled is false.
func (m *Manager) RestoreGroup(query, label string, enabled bool) {
	m.addGroup(query, label, enabled)
}

func (m *Manager) addGroup(query, label string, enabled bool) {
	if m.destroyed || m.hasGroup(query) {
		return
	}
	m.pendingGroups.Add(query)
	group := newResultGroup(query, label, m.groupsCreated)
	group.enabled = enabled
	m.groupsCreated++

	start := time.Now()
	m.deps.Sched.Go(func() {
		objs, err := m.deps.Provider.GetObjs(m.ctx, radar.Query{MapType: radar.MainField, Query: query})
		took := time.Since(start)
		m.deps.Sched.Post(func() {
			m.pendingGroups.Remove(query)
			if m.destroyed {
				return
			}
			m.record(KindGroup, query, len(objs), took, err)
			if err != nil {
				m.lastErr = fmt.Errorf("adding search group %q: %w", query, err)
				m.deps.Logger.Warn("failed to add search group", "query", query, "error", err)
				m.notify()
				return
			}
			group.init(m.deps.Surface, objs, m.deps.StyleOf)
			group.Update(UpdateStyle|UpdateVisibility, m.excludes, m.deps.StyleOf)
			m.groups = append(m.groups, group)
			m.lastErr = nil
			m.deps.Logger.Debug("search group added", "query", query, "results", len(objs))
			m.notify()
		})
	})
}

// RemoveGroup destroys the group at idx.
func (m *Manager) RemoveGroup(idx int) {
	g, ok := m.group(idx)
	if !ok {
		return
	}
	g.Remove()
	m.groups = slices.Delete(m.groups, idx, idx+1)
	m.notify()
}

// ViewGroup makes the group's query the live query and searches it.
func (m *Manager) ViewGroup(idx int) {
	g, ok := m.group(idx)
	if !ok {
		return
	}
	m.query = g.Query
	m.ExecuteSearch()
}

// ToggleGroup shows or hides the group at idx.
func (m *Manager) ToggleGroup(idx int) {
	g, ok := m.group(idx)
	if !ok {
		return
	}
	g.SetEnabled(!g.Enabled())
	m.notify()
}

func (m *Manager) group(idx int) (*ResultGroup, bool) {
	if idx < 0 || idx >= len(m.groups) {
		m.deps.Logger.Debug("search group index out of range", "index", idx, "groups", len(m.groups))
		return nil, false
	}
	return m.groups[idx], true
}

// AddExclude resolves query into an exclusion set. Once resolved the set is
// appended, the live search re-runs and every group refreshes visibility.
func (m *Manager) AddExclude(query, label string) {
	if m.destroyed || m.pendingExcludes.Has(query) ||
		lo.SomeBy(m.excludes, func(s *ExcludeSet) bool { return s.Query == query }) {
		return
	}
	m.pendingExcludes.Add(query)

	start := time.Now()
	m.deps.Sched.Go(func() {
		ids, err := m.deps.Provider.GetObjIDs(m.ctx, radar.Query{MapType: radar.MainField, Query: query})
		took := time.Since(start)
		m.deps.Sched.Post(func() {
			m.pendingExcludes.Remove(query)
			if m.destroyed {
				return
			}
			m.record(KindExclude, query, len(ids), took, err)
			if err != nil {
				m.lastErr = fmt.Errorf("adding exclusion %q: %w", query, err)
				m.deps.Logger.Warn("failed to add exclusion set", "query", query, "error", err)
				m.notify()
				return
			}
			m.excludes = append(m.excludes, newExcludeSet(query, label, ids))
			m.lastErr = nil
			m.ExecuteSearch()
			m.updateGroups(UpdateVisibility)
			m.notify()
		})
	})
}

// RemoveExclude drops the exclusion set at idx and refreshes the visibility
// of every group.
func (m *Manager) RemoveExclude(idx int) {
	if idx < 0 || idx >= len(m.excludes) {
		m.deps.Logger.Debug("exclusion index out of range", "index", idx, "excludes", len(m.excludes))
		return
	}
	m.excludes = slices.Delete(m.excludes, idx, idx+1)
	m.updateGroups(UpdateVisibility)
	m.notify()
}

// AddCurrentQueryAsGroup turns the live query into a group and clears it.
func (m *Manager) AddCurrentQueryAsGroup(label string) {
	if query := NormalizeQuery(m.query); query != "" {
		m.AddGroup(query, label)
	}
	m.query = ""
	m.ExecuteSearch()
}

// ExcludeCurrentQuery turns the live query into an exclusion set and clears it.
func (m *Manager) ExcludeCurrentQuery() {
	query := NormalizeQuery(m.query)
	if query == "" {
		return
	}
	m.query = ""
	m.ExecuteSearch()
	m.AddExclude(query, "")
}

// JumpToResult opens the details of a live result, zoomed in.
func (m *Manager) JumpToResult(idx int) {
	if idx < 0 || idx >= len(m.resultMarkers) {
		return
	}
	m.deps.Details.OpenMarker(m.resultMarkers[idx], JumpZoom)
}

// ApplyPreset runs the preset at idx as the live query.
func (m *Manager) ApplyPreset(idx int) {
	if idx < 0 || idx >= len(Presets) {
		return
	}
	m.query = Presets[idx].Query
	m.ExecuteSearch()
}

// AddGroupForMapUnit adds a group with every object of the map unit under
// at. Points outside the main field are ignored.
func (m *Manager) AddGroupForMapUnit(at core.LatLng) {
	unit, err := geo.PointToMapUnit(geo.ToXZ(at))
	if err != nil {
		return
	}
	m.AddGroup(fmt.Sprintf(`map:"MainField/%s"`, unit), "")
}

// OnZoom refreshes every group without recomputing anything.
func (m *Manager) OnZoom() { m.updateGroups(0) }

// OnSettingsChanged restyles every group.
func (m *Manager) OnSettingsChanged() { m.updateGroups(UpdateStyle) }

func (m *Manager) updateGroups(mode UpdateMode) {
	for _, g := range m.groups {
		g.Update(mode, m.excludes, m.deps.StyleOf)
	}
}

// State returns a snapshot of the search panel.
func (m *Manager) State() streaming.SearchStatePayload {
	state := streaming.SearchStatePayload{
		Query:            m.query,
		Searching:        m.searching,
		LastSearchFailed: m.lastSearchFailed,
		Results:          append([]core.ObjectMinData{}, m.results...),
		Groups: lo.Map(m.groups, func(g *ResultGroup, _ int) streaming.SearchGroupState {
			return streaming.SearchGroupState{
				Query:   g.Query,
				Label:   g.Label,
				Enabled: g.Enabled(),
				Count:   g.VisibleCount(),
				Color:   g.Color(),
			}
		}),
		Excludes: lo.Map(m.excludes, func(s *ExcludeSet, _ int) streaming.ExcludeSetState {
			return streaming.ExcludeSetState{Query: s.Query, Label: s.Label, Count: s.Len()}
		}),
		Presets: lo.Map(Presets, func(p Preset, _ int) streaming.PresetState {
			return streaming.PresetState{Label: p.Label, Query: p.Query}
		}),
	}
	if m.lastErr != nil {
		state.LastError = m.lastErr.Error()
	}
	return state
}

// Destroy removes every result marker and group from the map and drops
// pending work.
func (m *Manager) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	m.debouncer.Cancel()
	m.clearResults()
	for _, g := range m.groups {
		g.Remove()
	}
	m.groups = nil
	m.excludes = nil
}
