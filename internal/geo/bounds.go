package geo

import (
	"github.com/objmap/mapcore/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Bounds is an axis aligned rectangle on the map plane.
type Bounds struct {
	min, max core.XZ
	env      geom.Envelope
}

// NewBounds returns the smallest bounds containing both corners.
func NewBounds(a, b core.XZ) Bounds {
	lo := core.XZ{X: min(a.X, b.X), Z: min(a.Z, b.Z)}
	hi := core.XZ{X: max(a.X, b.X), Z: max(a.Z, b.Z)}
	env := geom.Envelope{}.
		ExpandToIncludeXY(geom.XY{X: lo.X, Y: lo.Z}).
		ExpandToIncludeXY(geom.XY{X: hi.X, Y: hi.Z})
	return Bounds{min: lo, max: hi, env: env}
}

// Min returns the north-west corner.
func (b Bounds) Min() core.XZ { return b.min }

// Max returns the south-east corner.
func (b Bounds) Max() core.XZ { return b.max }

// Center returns the middle of the bounds.
func (b Bounds) Center() core.XZ {
	return core.XZ{X: (b.min.X + b.max.X) / 2, Z: (b.min.Z + b.max.Z) / 2}
}

// Pad grows the bounds by ratio of its extent on every side, like Leaflet's
// LatLngBounds.pad.
func (b Bounds) Pad(ratio float64) Bounds {
	dx := (b.max.X - b.min.X) * ratio
	dz := (b.max.Z - b.min.Z) * ratio
	return NewBounds(
		core.XZ{X: b.min.X - dx, Z: b.min.Z - dz},
		core.XZ{X: b.max.X + dx, Z: b.max.Z + dz},
	)
}

// Contains reports whether p is inside or on the edge of the bounds.
func (b Bounds) Contains(p core.XZ) bool {
	return b.env.Contains(geom.XY{X: p.X, Y: p.Z})
}

// Polygon returns the bounds as a closed ring, used for rectangle overlays.
func (b Bounds) Polygon() geom.Polygon {
	ring := geom.NewLineString(geom.NewSequence([]float64{
		b.min.X, b.min.Z,
		b.max.X, b.min.Z,
		b.max.X, b.max.Z,
		b.min.X, b.max.Z,
		b.min.X, b.min.Z,
	}, geom.DimXY))
	return geom.NewPolygon([]geom.LineString{ring})
}

// ViewBounds approximates the visible area for a viewport on a screen of the
// given pixel size. At zoom z one map unit is 2^(z-MinZoom) / 4 pixels wide.
func ViewBounds(v core.Viewport, widthPx, heightPx float64) Bounds {
	scale := float64(int(1)<<max(v.Zoom-MinZoom, 0)) / 4
	halfW := widthPx / scale / 2
	halfH := heightPx / scale / 2
	return NewBounds(
		core.XZ{X: v.Center.X - halfW, Z: v.Center.Z - halfH},
		core.XZ{X: v.Center.X + halfW, Z: v.Center.Z + halfH},
	)
}
