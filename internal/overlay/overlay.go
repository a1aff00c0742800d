// Package overlay manages the one-shot layers that are not tied to a marker
// type: the plateau barrier, the goto pin and the transient object marker.
package overlay

import (
	"log/slog"

	"github.com/objmap/mapcore/internal/details"
	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/marker"
	"github.com/objmap/mapcore/pkg/core"
)

// Context menu actions bound by the controller.
const (
	ActionHideBarrier = "hide-barrier"
	ActionHideGoto    = "hide-goto"
)

const (
	barrierColor = "#c50000"
	barrierZoom  = 5

	tempObjFill   = "#e02500"
	tempObjStroke = "#ff2a00"
)

var (
	barrierBounds = geo.NewBounds(core.XZ{X: -1600, Z: 1400}, core.XZ{X: -350, Z: 2400})
	respawnPos    = core.XZ{X: -1021.7286376953125, Z: 1792.6009521484375}
	barrierView   = core.XZ{X: -965, Z: 1875}
)

// Surface is the part of the map the controller drives.
type Surface interface {
	AddLayer(l mapview.Layer)
	RemoveLayer(l mapview.Layer)
	SetView(center core.XZ, zoom int)
	Zoom() int
	RegisterClickCb(cb func())
	RegisterContextAction(action string, cb func())
	UnregisterContextAction(action string)
}

// DetailsOpener opens the details pane for a marker.
type DetailsOpener interface {
	OpenMarker(m marker.Marker, zoom int)
}

// Rectangle is an unfilled outline drawn over an area of the map.
type Rectangle struct {
	id      string
	bounds  geo.Bounds
	color   string
	actions []mapview.ContextAction
}

func (r *Rectangle) LayerID() string { return r.id }

// Bounds returns the outlined area.
func (r *Rectangle) Bounds() geo.Bounds { return r.bounds }

func (r *Rectangle) LayerSpec() mapview.Spec {
	return mapview.Spec{
		ID:          r.id,
		Kind:        mapview.KindRectangle,
		Bounds:      []core.LatLng{geo.FromXZ(r.bounds.Min()), geo.FromXZ(r.bounds.Max())},
		Style:       &mapview.Style{StrokeColor: r.color},
		ContextMenu: r.actions,
	}
}

// Controller owns the overlays of one map.
type Controller struct {
	surface Surface
	opener  DetailsOpener
	logger  *slog.Logger

	barrier *Rectangle
	respawn *marker.PlateauRespawn
	gotoPin *marker.Pin
	tempObj *marker.Object
}

// NewController creates a controller and hooks background clicks, which
// drop the transient object marker.
func NewController(s Surface, opener DetailsOpener, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{surface: s, opener: opener, logger: logger}
	s.RegisterClickCb(c.OnBackgroundClick)
	return c
}

// BarrierShown reports whether the barrier is on the map.
func (c *Controller) BarrierShown() bool { return c.barrier != nil }

// GotoPin returns the goto pin, or nil.
func (c *Controller) GotoPin() *marker.Pin { return c.gotoPin }

// TempObject returns the transient object marker, or nil.
func (c *Controller) TempObject() *marker.Object { return c.tempObj }

// ShowBarrier draws the barrier and the respawn point once and centers the
// view on them.
func (c *Controller) ShowBarrier() {
	if c.barrier == nil {
		hide := mapview.ContextAction{Text: "Hide barrier and respawn point", Action: ActionHideBarrier}
		c.barrier = &Rectangle{
			id:      "plateau-barrier",
			bounds:  barrierBounds,
			color:   barrierColor,
			actions: []mapview.ContextAction{hide},
		}
		c.respawn = marker.NewPlateauRespawn(respawnPos)
		c.surface.AddLayer(c.barrier)
		c.surface.AddLayer(c.respawn)
		c.surface.RegisterContextAction(ActionHideBarrier, c.HideBarrier)
	}
	c.surface.SetView(barrierView, barrierZoom)
}

// HideBarrier removes the barrier and the respawn point.
func (c *Controller) HideBarrier() {
	if c.barrier == nil {
		return
	}
	c.surface.RemoveLayer(c.barrier)
	c.surface.RemoveLayer(c.respawn)
	c.surface.UnregisterContextAction(ActionHideBarrier)
	c.barrier = nil
	c.respawn = nil
}

// GotoCoords centers the view on xz at the current zoom and drops a pin
// there, replacing the previous one.
func (c *Controller) GotoCoords(xz core.XZ) {
	c.surface.SetView(xz, c.surface.Zoom())
	c.HideGotoPin()
	c.gotoPin = marker.NewPin(xz, mapview.ContextAction{Text: "Hide", Action: ActionHideGoto})
	c.surface.AddLayer(c.gotoPin)
	c.surface.RegisterContextAction(ActionHideGoto, c.HideGotoPin)
}

// HideGotoPin removes the goto pin.
func (c *Controller) HideGotoPin() {
	if c.gotoPin == nil {
		return
	}
	c.surface.RemoveLayer(c.gotoPin)
	c.surface.UnregisterContextAction(ActionHideGoto)
	c.gotoPin = nil
}

// OpenObject highlights obj with a transient marker, replacing the previous
// one, and opens its details.
func (c *Controller) OpenObject(obj core.ObjectData) {
	c.removeTempObj()
	c.tempObj = marker.NewObject(obj, tempObjFill, tempObjStroke)
	c.surface.AddLayer(c.tempObj)
	c.logger.Debug("opening object", "objid", obj.ObjID)
	c.opener.OpenMarker(c.tempObj, details.AutoZoom)
}

// OnBackgroundClick drops the transient object marker.
func (c *Controller) OnBackgroundClick() { c.removeTempObj() }

func (c *Controller) removeTempObj() {
	if c.tempObj == nil {
		return
	}
	c.surface.RemoveLayer(c.tempObj)
	c.tempObj = nil
}

// Destroy removes every overlay.
func (c *Controller) Destroy() {
	c.HideBarrier()
	c.HideGotoPin()
	c.removeTempObj()
}
