// Package mapview is the server-side model of the client map: the viewport,
// the set of attached layers, and the event callbacks other components hook
// into. Drawing is delegated to a Renderer.
package mapview

import (
	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/pkg/core"
)

// Default client screen size, used until the client reports its bounds.
const (
	defaultWidthPx  = 1280
	defaultHeightPx = 800
)

// Map tracks the state of one client map. It is not safe for concurrent use;
// every method must be called from the session loop.
type Map struct {
	renderer Renderer

	viewport core.Viewport
	bounds   *geo.Bounds
	layers   map[string]Layer

	zoomCbs           []func()
	zoomEndCbs        []func()
	moveEndCbs        []func()
	zoomChangeCbs     []func(int)
	markerSelectedCbs []func(Layer)
	clickCbs          []func()
	showAllObjsCbs    []func(core.LatLng)
	contextActionCbs  map[string]func()
}

// New creates a map drawing through r. A nil renderer discards commands.
func New(r Renderer) *Map {
	if r == nil {
		r = NopRenderer{}
	}
	return &Map{
		renderer:         r,
		viewport:         core.Viewport{Zoom: geo.DefaultZoom},
		layers:           make(map[string]Layer),
		contextActionCbs: make(map[string]func()),
	}
}

// Viewport returns the current center and zoom.
func (m *Map) Viewport() core.Viewport { return m.viewport }

// Center returns the current center on the map plane.
func (m *Map) Center() core.XZ { return m.viewport.Center }

// Zoom returns the current zoom level.
func (m *Map) Zoom() int { return m.viewport.Zoom }

// Bounds returns the visible area: the last bounds reported by the client, or
// an estimate from the viewport.
func (m *Map) Bounds() geo.Bounds {
	if m.bounds != nil {
		return *m.bounds
	}
	return geo.ViewBounds(m.viewport, defaultWidthPx, defaultHeightPx)
}

// AddLayer attaches l. Attaching an attached layer is a no-op.
func (m *Map) AddLayer(l Layer) {
	id := l.LayerID()
	if _, ok := m.layers[id]; ok {
		return
	}
	m.layers[id] = l
	m.renderer.AddLayer(l.LayerSpec())
}

// RemoveLayer detaches l. Detaching a layer that is not attached is a no-op.
func (m *Map) RemoveLayer(l Layer) {
	id := l.LayerID()
	if _, ok := m.layers[id]; !ok {
		return
	}
	delete(m.layers, id)
	m.renderer.RemoveLayer(id)
}

// UpdateLayer pushes a new spec for an attached layer.
func (m *Map) UpdateLayer(l Layer) {
	if _, ok := m.layers[l.LayerID()]; !ok {
		return
	}
	m.renderer.UpdateLayer(l.LayerSpec())
}

// HasLayer reports whether l is attached.
func (m *Map) HasLayer(l Layer) bool {
	_, ok := m.layers[l.LayerID()]
	return ok
}

// Layer returns the attached layer with the given id.
func (m *Map) Layer(id string) (Layer, bool) {
	l, ok := m.layers[id]
	return l, ok
}

// LayerCount returns the number of attached layers.
func (m *Map) LayerCount() int { return len(m.layers) }

// SetView moves the viewport and fires the same callbacks as a user driven
// move would.
func (m *Map) SetView(center core.XZ, zoom int) {
	zoom = geo.ClampZoom(zoom)
	m.renderer.SetView(geo.FromXZ(center), zoom)
	m.applyView(center, zoom, nil)
}

// PanTo moves the viewport without changing zoom.
func (m *Map) PanTo(center core.XZ) {
	m.renderer.PanTo(geo.FromXZ(center))
	m.applyView(center, m.viewport.Zoom, nil)
}

// HandleView applies a viewport reported by the client at the end of a pan or
// zoom. Reports matching the current state are echoes of SetView and ignored.
func (m *Map) HandleView(center core.LatLng, zoom int, bounds *geo.Bounds) {
	xz := geo.ToXZ(center)
	if xz == m.viewport.Center && zoom == m.viewport.Zoom {
		if bounds != nil {
			m.bounds = bounds
		}
		return
	}
	m.applyView(xz, zoom, bounds)
}

func (m *Map) applyView(center core.XZ, zoom int, bounds *geo.Bounds) {
	zoomChanged := zoom != m.viewport.Zoom
	m.viewport = core.Viewport{Center: center, Zoom: zoom}
	m.bounds = bounds

	if zoomChanged {
		for _, cb := range m.zoomChangeCbs {
			cb(zoom)
		}
		for _, cb := range m.zoomCbs {
			cb()
		}
		for _, cb := range m.zoomEndCbs {
			cb()
		}
	}
	for _, cb := range m.moveEndCbs {
		cb()
	}
}

// HandleClick fires the background click callbacks.
func (m *Map) HandleClick() {
	for _, cb := range m.clickCbs {
		cb()
	}
}

// HandleMarkerSelected fires the selection callbacks for an attached layer.
func (m *Map) HandleMarkerSelected(id string) bool {
	l, ok := m.layers[id]
	if !ok {
		return false
	}
	for _, cb := range m.markerSelectedCbs {
		cb(l)
	}
	return true
}

// HandleShowAllObjs fires the "show all objects for map unit" callbacks.
func (m *Map) HandleShowAllObjs(at core.LatLng) {
	for _, cb := range m.showAllObjsCbs {
		cb(at)
	}
}

// HandleContextAction runs the callback bound to a context menu action.
func (m *Map) HandleContextAction(action string) bool {
	cb, ok := m.contextActionCbs[action]
	if ok {
		cb()
	}
	return ok
}

// RegisterZoomCb registers a callback fired when the zoom level changes.
func (m *Map) RegisterZoomCb(cb func()) { m.zoomCbs = append(m.zoomCbs, cb) }

// RegisterZoomEndCb registers a callback fired at the end of a zoom.
func (m *Map) RegisterZoomEndCb(cb func()) { m.zoomEndCbs = append(m.zoomEndCbs, cb) }

// RegisterMoveEndCb registers a callback fired at the end of every move.
func (m *Map) RegisterMoveEndCb(cb func()) { m.moveEndCbs = append(m.moveEndCbs, cb) }

// RegisterZoomChangeCb registers a callback receiving the new zoom level.
func (m *Map) RegisterZoomChangeCb(cb func(int)) {
	m.zoomChangeCbs = append(m.zoomChangeCbs, cb)
}

// RegisterMarkerSelectedCb registers a callback fired when the user selects a layer.
func (m *Map) RegisterMarkerSelectedCb(cb func(Layer)) {
	m.markerSelectedCbs = append(m.markerSelectedCbs, cb)
}

// RegisterClickCb registers a callback fired on background clicks.
func (m *Map) RegisterClickCb(cb func()) { m.clickCbs = append(m.clickCbs, cb) }

// RegisterShowAllObjsCb registers a callback for the map unit context action.
func (m *Map) RegisterShowAllObjsCb(cb func(core.LatLng)) {
	m.showAllObjsCbs = append(m.showAllObjsCbs, cb)
}

// RegisterContextAction binds a context menu action name to a callback.
func (m *Map) RegisterContextAction(action string, cb func()) {
	m.contextActionCbs[action] = cb
}

// UnregisterContextAction removes a context menu binding.
func (m *Map) UnregisterContextAction(action string) {
	delete(m.contextActionCbs, action)
}

// Destroy detaches every layer.
func (m *Map) Destroy() {
	for id := range m.layers {
		m.renderer.RemoveLayer(id)
	}
	m.layers = make(map[string]Layer)
}
