// pkg/core/position.go
package core

// Point is a world position as stored in the game data.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"` // height
	Z float64 `json:"z"`
}

// XZ returns the map-plane projection of the point.
func (p Point) XZ() XZ {
	return XZ{X: p.X, Z: p.Z}
}

// XZ is a position on the map plane.
type XZ struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// LatLng is a renderer-space coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Viewport is the visible map window.
type Viewport struct {
	Center XZ  `json:"center"`
	Zoom   int `json:"zoom"`
}

// RouteParams are the addressable map route parameters, kept as strings
// exactly as they appear in the URL.
type RouteParams struct {
	X    string `json:"x"`
	Z    string `json:"z"`
	Zoom string `json:"zoom"`
}
