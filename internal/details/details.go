// Package details binds the selected marker to the details pane of the
// sidebar and marks it with a pin.
package details

import (
	"log/slog"

	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/marker"
	"github.com/objmap/mapcore/pkg/core"
)

const (
	// Pane is the sidebar pane showing details.
	Pane = "spane-details"
	// AutoZoom pans to the marker and keeps the zoom level.
	AutoZoom = -1
)

// Surface is the part of the map the controller drives.
type Surface interface {
	AddLayer(l mapview.Layer)
	RemoveLayer(l mapview.Layer)
	SetView(center core.XZ, zoom int)
	PanTo(center core.XZ)
}

// Sidebar opens and closes sidebar panes.
type Sidebar interface {
	Open(pane string)
	Close()
}

// State is a snapshot of the selection.
type State struct {
	View   string
	Marker marker.Marker
	Pin    *marker.Pin
	Opened bool
}

// Controller holds at most one selected marker.
type Controller struct {
	surface  Surface
	sidebar  Sidebar
	registry *marker.Registry
	logger   *slog.Logger

	view   string
	marker marker.Marker
	pin    *marker.Pin
	opened bool
}

// NewController creates a closed controller.
func NewController(s Surface, sb Sidebar, registry *marker.Registry, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{surface: s, sidebar: sb, registry: registry, logger: logger}
}

// ViewFor returns the details view a marker binds to.
func (c *Controller) ViewFor(m marker.Marker) string {
	return c.registry.DetailsViewFor(m)
}

// OpenMarker opens the details of m in the view it resolves to.
func (c *Controller) OpenMarker(m marker.Marker, zoom int) {
	c.Open(c.ViewFor(m), m, zoom)
}

// Open selects m, replacing any previous selection. With AutoZoom the view
// pans to the marker, otherwise it is set to the given zoom.
func (c *Controller) Open(view string, m marker.Marker, zoom int) {
	c.close(true)

	c.marker = m
	c.view = view
	c.sidebar.Open(Pane)
	c.opened = true

	c.pin = marker.NewPin(m.XZ())
	c.surface.AddLayer(c.pin)

	if zoom == AutoZoom {
		c.surface.PanTo(m.XZ())
	} else {
		c.surface.SetView(m.XZ(), zoom)
	}
	c.logger.Debug("details opened", "view", view, "marker", m.LayerID())
}

// Close clears the selection and closes the pane.
func (c *Controller) Close() { c.close(false) }

// close leaves the sidebar alone when a new selection follows immediately.
func (c *Controller) close(forOpen bool) {
	if !c.opened {
		return
	}
	c.view = ""
	c.marker = nil
	if !forOpen {
		c.sidebar.Close()
	}
	if c.pin != nil {
		c.surface.RemoveLayer(c.pin)
		c.pin = nil
	}
	c.opened = false
}

// State returns the current selection.
func (c *Controller) State() State {
	return State{View: c.view, Marker: c.marker, Pin: c.pin, Opened: c.opened}
}
