package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/objmap/mapcore/pkg/core"
)

// The main field is a flat plane. Renderer coordinates are the XZ plane with
// the Z axis flipped, so north is up on screen.

const (
	// DefaultZoom is the zoom level used when the route carries none.
	DefaultZoom = 3
	MinZoom     = 2
	MaxZoom     = 7

	// Map units are 1000x1000 squares labelled A-J (west to east) and 1-8
	// (north to south).
	mapUnitSize = 1000.0
	fieldMinX   = -5000.0
	fieldMaxX   = 5000.0
	fieldMinZ   = -4000.0
	fieldMaxZ   = 4000.0
)

// ErrInvalidCoordinates is returned when a coordinate string cannot be parsed
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrOutsideField is returned for points outside the main field
var ErrOutsideField = errors.New("point is outside the main field")

// FromXZ converts a map-plane point to renderer space.
func FromXZ(p core.XZ) core.LatLng {
	return core.LatLng{Lat: -p.Z, Lng: p.X}
}

// ToXZ converts a renderer coordinate to the map plane.
func ToXZ(ll core.LatLng) core.XZ {
	return core.XZ{X: ll.Lng, Z: -ll.Lat}
}

// IsValidPoint reports whether p lies on the main field.
func IsValidPoint(p core.XZ) bool {
	return fieldMinX <= p.X && p.X < fieldMaxX && fieldMinZ <= p.Z && p.Z < fieldMaxZ
}

// PointToMapUnit returns the map unit label ("D-6") containing p.
func PointToMapUnit(p core.XZ) (string, error) {
	if !IsValidPoint(p) {
		return "", ErrOutsideField
	}
	col := int((p.X - fieldMinX) / mapUnitSize)
	row := int((p.Z - fieldMinZ) / mapUnitSize)
	return fmt.Sprintf("%c-%d", 'A'+col, row+1), nil
}

// ParseXZ parses a "x,z" or "x,y,z" coordinate string as typed into the goto
// dialog. With three components the middle one is the height and is dropped.
func ParseXZ(coords string) (core.XZ, error) {
	split := strings.Split(coords, ",")
	if len(split) < 2 || len(split) > 3 {
		return core.XZ{}, ErrInvalidCoordinates
	}
	values := make([]float64, len(split))
	for i, s := range split {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return core.XZ{}, ErrInvalidCoordinates
		}
		values[i] = v
	}
	if len(values) == 3 {
		return core.XZ{X: values[0], Z: values[2]}, nil
	}
	return core.XZ{X: values[0], Z: values[1]}, nil
}

// ClampZoom keeps a zoom level inside the renderer's supported range.
func ClampZoom(zoom int) int {
	return min(max(zoom, MinZoom), MaxZoom)
}
