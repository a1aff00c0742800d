package mapview

import (
	"encoding/json"

	"github.com/objmap/mapcore/pkg/core"
)

// Kind tells the renderer how to draw a layer.
type Kind string

const (
	KindMarker    Kind = "marker"
	KindCircle    Kind = "circle"
	KindRectangle Kind = "rectangle"
	KindPin       Kind = "pin"
	KindGeoJSON   Kind = "geojson"
)

// Panes used by the renderer. Pins are drawn above everything else.
const (
	PaneDefault = ""
	PaneFront   = "front"
)

// Style is the visual treatment of circle layers.
type Style struct {
	FillColor   string  `json:"fillColor,omitempty"`
	StrokeColor string  `json:"strokeColor,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
	Dimmed      bool    `json:"dimmed,omitempty"`
}

// ContextAction is an entry of a layer's context menu. The renderer sends
// the action name back when the user picks it.
type ContextAction struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

// Spec is everything the renderer needs to draw a layer.
type Spec struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Pane        string          `json:"pane,omitempty"`
	LatLng      *core.LatLng    `json:"latlng,omitempty"`
	Bounds      []core.LatLng   `json:"bounds,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Title       string          `json:"title,omitempty"`
	Selectable  bool            `json:"selectable,omitempty"`
	Style       *Style          `json:"style,omitempty"`
	ContextMenu []ContextAction `json:"contextMenu,omitempty"`
	GeoJSON     json.RawMessage `json:"geojson,omitempty"`
}

// Layer is anything that can be attached to the map.
type Layer interface {
	LayerID() string
	LayerSpec() Spec
}
