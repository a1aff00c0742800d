package marker

import (
	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/internal/mapview"
)

// Surface is the part of the map a group attaches markers to.
type Surface interface {
	AddLayer(l mapview.Layer)
	RemoveLayer(l mapview.Layer)
	HasLayer(l mapview.Layer) bool
	Bounds() geo.Bounds
}

// Group owns the markers of one type.
type Group struct {
	markers        []Marker
	preloadPad     float64
	updatesEnabled bool
	surface        Surface
}

// NewGroup creates a detached group.
func NewGroup(markers []Marker, preloadPad float64, updatesEnabled bool) *Group {
	return &Group{
		markers:        markers,
		preloadPad:     preloadPad,
		updatesEnabled: updatesEnabled,
	}
}

// Markers returns the owned markers.
func (g *Group) Markers() []Marker { return g.markers }

// Attached reports whether the group is on a map.
func (g *Group) Attached() bool { return g.surface != nil }

// AddToMap attaches the group. Groups without updates attach every marker
// once; the others attach what is near the viewport.
func (g *Group) AddToMap(s Surface) {
	g.surface = s
	if !g.updatesEnabled {
		for _, m := range g.markers {
			s.AddLayer(m)
		}
		return
	}
	g.update()
}

// Update re-evaluates which markers are near the viewport. It does nothing
// for groups with updates disabled unless forced.
func (g *Group) Update(force bool) {
	if g.surface == nil {
		return
	}
	if !g.updatesEnabled && !force {
		return
	}
	g.update()
}

func (g *Group) update() {
	bounds := g.surface.Bounds().Pad(g.preloadPad)
	for _, m := range g.markers {
		show := bounds.Contains(m.XZ())
		shown := g.surface.HasLayer(m)
		switch {
		case show && !shown:
			g.surface.AddLayer(m)
		case !show && shown:
			g.surface.RemoveLayer(m)
		}
	}
}

// Destroy detaches every marker and the group itself.
func (g *Group) Destroy() {
	if g.surface == nil {
		return
	}
	for _, m := range g.markers {
		if g.surface.HasLayer(m) {
			g.surface.RemoveLayer(m)
		}
	}
	g.surface = nil
}
