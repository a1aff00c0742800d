// Package route keeps the map viewport and the addressable map route in
// sync in both directions.
package route

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/pkg/core"
)

// MapRoute is the name of the map route.
const MapRoute = "map"

// ErrInvalidRoute is returned when route coordinates are not numbers.
var ErrInvalidRoute = errors.New("invalid route coordinates")

// Route is a route the binder navigates to. Params is nil for the bare map
// route.
type Route struct {
	Name   string
	Params *core.RouteParams
}

// Router replaces the current route without adding a history entry.
type Router interface {
	Replace(r Route)
}

// Surface is the part of the map the binder reads and moves.
type Surface interface {
	Viewport() core.Viewport
	SetView(center core.XZ, zoom int)
	RegisterMoveEndCb(cb func())
	RegisterZoomEndCb(cb func())
}

// Parse reads a viewport from route params. A zoom that is not a number
// falls back to the default zoom.
func Parse(p core.RouteParams) (core.Viewport, error) {
	x, errX := parseCoord(p.X)
	z, errZ := parseCoord(p.Z)
	if err := errors.Join(errX, errZ); err != nil {
		return core.Viewport{}, fmt.Errorf("%w: x=%q z=%q", ErrInvalidRoute, p.X, p.Z)
	}
	return core.Viewport{Center: core.XZ{X: x, Z: z}, Zoom: parseZoom(p.Zoom)}, nil
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidRoute
	}
	return v, nil
}

func parseZoom(s string) int {
	if zoom, err := strconv.Atoi(s); err == nil {
		return zoom
	}
	// "5.5" and the like keep their integer part
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return int(v)
	}
	return geo.DefaultZoom
}

// Format writes a viewport as route params using the shortest float form
// that reads back to the same value.
func Format(v core.Viewport) core.RouteParams {
	return core.RouteParams{
		X:    strconv.FormatFloat(v.Center.X, 'f', -1, 64),
		Z:    strconv.FormatFloat(v.Center.Z, 'f', -1, 64),
		Zoom: strconv.Itoa(v.Zoom),
	}
}

// Binder mirrors the viewport into the route and back.
type Binder struct {
	surface Surface
	router  Router
	logger  *slog.Logger

	updatingRoute bool

	// routes written by the binder whose change notification has not come back yet
	sent []core.RouteParams
}

// maxSent bounds the routes remembered for routers that never report their
// own replacements.
const maxSent = 32

// NewBinder creates a binder. Nothing happens until Mount.
func NewBinder(s Surface, r Router, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{surface: s, router: r, logger: logger}
}

// Mount applies the initial route to the map, writes the resulting viewport
// back to the route and follows every later pan and zoom.
func (b *Binder) Mount(initial core.RouteParams) {
	b.setViewFromRoute(initial)
	b.surface.RegisterMoveEndCb(b.Sync)
	b.surface.RegisterZoomEndCb(b.Sync)
	b.Sync()
}

// OnRouteChange applies a route change made outside the binder, such as
// browser navigation. Changes made by the binder itself are ignored.
func (b *Binder) OnRouteChange(p core.RouteParams) {
	// a late report of our own replacement must not move the map back
	if i := slices.Index(b.sent, p); i >= 0 {
		b.sent = b.sent[i+1:]
		return
	}
	if b.updatingRoute {
		return
	}
	if v, err := Parse(p); err == nil && v == b.surface.Viewport() {
		return
	}
	b.setViewFromRoute(p)
}

func (b *Binder) setViewFromRoute(p core.RouteParams) {
	v, err := Parse(p)
	if err != nil {
		b.logger.Debug("redirecting malformed route", "error", err)
		b.replace(Route{Name: MapRoute})
		return
	}
	b.surface.SetView(v.Center, v.Zoom)
}

// Sync writes the current viewport to the route.
func (b *Binder) Sync() {
	params := Format(b.surface.Viewport())
	b.replace(Route{Name: MapRoute, Params: &params})
}

func (b *Binder) replace(r Route) {
	var p core.RouteParams
	if r.Params != nil {
		p = *r.Params
	}
	b.sent = append(b.sent, p)
	if len(b.sent) > maxSent {
		b.sent = b.sent[len(b.sent)-maxSent:]
	}

	b.updatingRoute = true
	defer func() { b.updatingRoute = false }()
	b.router.Replace(r)
}
