package search

import (
	"github.com/samber/lo"

	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/marker"
	"github.com/objmap/mapcore/pkg/core"
)

// Surface is the part of the map search results are drawn on.
type Surface interface {
	AddLayer(l mapview.Layer)
	RemoveLayer(l mapview.Layer)
	UpdateLayer(l mapview.Layer)
	HasLayer(l mapview.Layer) bool
}

// StyleFunc computes the treatment of a result from its group's base style.
type StyleFunc func(obj core.ObjectMinData, base mapview.Style) mapview.Style

// Group colors are handed out in turn.
var groupColors = []struct{ fill, stroke string }{
	{"#e6194b", "#ff4f7b"},
	{"#3cb44b", "#6fe07c"},
	{"#4363d8", "#7b95ff"},
	{"#f58231", "#ffae6b"},
	{"#911eb4", "#c45ee6"},
	{"#42d4f4", "#8ce8fb"},
	{"#f032e6", "#ff73f3"},
	{"#bfef45", "#d9ff8a"},
}

const resultRadius = 5

// ResultGroup is a persisted search: a query, its label and the markers of
// every matching object. Markers hidden by an exclusion set stay owned by the
// group but are detached from the map.
type ResultGroup struct {
	Query string
	Label string

	style   mapview.Style
	enabled bool
	markers []*marker.SearchResult
	hidden  []bool
	surface Surface
}

func newResultGroup(query, label string, colorIdx int) *ResultGroup {
	if label == "" {
		label = query
	}
	c := groupColors[colorIdx%len(groupColors)]
	return &ResultGroup{
		Query:   query,
		Label:   label,
		style:   mapview.Style{FillColor: c.fill, StrokeColor: c.stroke, Radius: resultRadius},
		enabled: true,
	}
}

// init builds the markers of the resolved objects and binds the group to s.
// Markers are attached by the first Update.
func (g *ResultGroup) init(s Surface, objs []core.ObjectMinData, styleOf StyleFunc) {
	g.surface = s
	g.markers = lo.Map(objs, func(obj core.ObjectMinData, _ int) *marker.SearchResult {
		return marker.NewSearchResult(obj, styleOf(obj, g.style))
	})
	g.hidden = make([]bool, len(g.markers))
}

// Enabled reports whether the group is shown.
func (g *ResultGroup) Enabled() bool { return g.enabled }

// Color returns the fill color of the group.
func (g *ResultGroup) Color() string { return g.style.FillColor }

// Markers returns the result markers, hidden ones included.
func (g *ResultGroup) Markers() []*marker.SearchResult { return g.markers }

// VisibleCount returns the number of results not hidden by exclusion sets.
func (g *ResultGroup) VisibleCount() int {
	return lo.CountBy(g.hidden, func(h bool) bool { return !h })
}

// Update recomputes what mode asks for, then makes the map match: a marker
// is attached iff the group is enabled and the marker is not hidden.
func (g *ResultGroup) Update(mode UpdateMode, excludes []*ExcludeSet, styleOf StyleFunc) {
	if g.surface == nil {
		return
	}
	for i, m := range g.markers {
		if mode.Has(UpdateVisibility) {
			g.hidden[i] = lo.SomeBy(excludes, func(set *ExcludeSet) bool {
				return set.Has(m.Obj.ObjID)
			})
		}
		if mode.Has(UpdateStyle) && m.SetStyle(styleOf(m.Obj, g.style)) {
			g.surface.UpdateLayer(m)
		}
		g.apply(i)
	}
}

// SetEnabled shows or hides the whole group.
func (g *ResultGroup) SetEnabled(enabled bool) {
	if g.enabled == enabled {
		return
	}
	g.enabled = enabled
	for i := range g.markers {
		g.apply(i)
	}
}

func (g *ResultGroup) apply(i int) {
	m := g.markers[i]
	show := g.enabled && !g.hidden[i]
	shown := g.surface.HasLayer(m)
	switch {
	case show && !shown:
		g.surface.AddLayer(m)
	case !show && shown:
		g.surface.RemoveLayer(m)
	}
}

// Remove detaches every marker. The group cannot be used afterwards.
func (g *ResultGroup) Remove() {
	if g.surface == nil {
		return
	}
	for _, m := range g.markers {
		g.surface.RemoveLayer(m)
	}
	g.markers = nil
	g.hidden = nil
	g.surface = nil
}
