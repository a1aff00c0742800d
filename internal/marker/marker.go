// Package marker holds the renderable point entities of the map and the
// groups that attach them to the map per marker type.
package marker

import (
	"fmt"
	"sync/atomic"

	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/pkg/core"
)

// Variant identifies the concrete kind of a marker.
type Variant string

const (
	VariantLocation       Variant = "Location"
	VariantDungeon        Variant = "Dungeon"
	VariantPlace          Variant = "Place"
	VariantTower          Variant = "Tower"
	VariantShop           Variant = "Shop"
	VariantLabo           Variant = "Labo"
	VariantKorok          Variant = "Korok"
	VariantObj            Variant = "Obj"
	VariantSearchResult   Variant = "SearchResult"
	VariantPlateauRespawn Variant = "PlateauRespawn"
	VariantPin            Variant = "Pin"
)

// Marker is a renderable point bound to a world position.
type Marker interface {
	mapview.Layer
	Variant() Variant
	XZ() core.XZ
	Title() string
}

var nextID atomic.Uint64

func newID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, nextID.Add(1))
}

type base struct {
	id      string
	variant Variant
	pos     core.XZ
	title   string
}

func (b *base) LayerID() string  { return b.id }
func (b *base) Variant() Variant { return b.variant }
func (b *base) XZ() core.XZ      { return b.pos }
func (b *base) Title() string    { return b.title }

func (b *base) latLng() *core.LatLng {
	ll := geo.FromXZ(b.pos)
	return &ll
}

// Static is a marker built from the map summary: locations, shrines, towers
// and so on.
type Static struct {
	base
	Icon string
	Raw  core.RawMarker
}

// NewStatic creates a static marker of the given variant.
func NewStatic(variant Variant, raw core.RawMarker, icon string) *Static {
	return &Static{
		base: base{
			id:      newID(string(variant)),
			variant: variant,
			pos:     raw.Position().XZ(),
			title:   raw.Name,
		},
		Icon: icon,
		Raw:  raw,
	}
}

func (m *Static) LayerSpec() mapview.Spec {
	return mapview.Spec{
		ID:         m.id,
		Kind:       mapview.KindMarker,
		LatLng:     m.latLng(),
		Icon:       m.Icon,
		Title:      m.title,
		Selectable: true,
	}
}

// SearchResult is a circle marker for one object matched by a search.
type SearchResult struct {
	base
	Obj   core.ObjectMinData
	style mapview.Style
}

// NewSearchResult creates a result marker with the given base style.
func NewSearchResult(obj core.ObjectMinData, style mapview.Style) *SearchResult {
	return &SearchResult{
		base: base{
			id:      newID("search"),
			variant: VariantSearchResult,
			pos:     obj.Position().XZ(),
			title:   objTitle(obj),
		},
		Obj:   obj,
		style: style,
	}
}

// Style returns the current visual treatment.
func (m *SearchResult) Style() mapview.Style { return m.style }

// SetStyle replaces the visual treatment and reports whether it changed.
func (m *SearchResult) SetStyle(s mapview.Style) bool {
	if m.style == s {
		return false
	}
	m.style = s
	return true
}

func (m *SearchResult) LayerSpec() mapview.Spec {
	style := m.style
	return mapview.Spec{
		ID:         m.id,
		Kind:       mapview.KindCircle,
		LatLng:     m.latLng(),
		Title:      m.title,
		Selectable: true,
		Style:      &style,
	}
}

// Object is a transient highlighted marker for an object opened from outside
// the map, e.g. a link in the details pane.
type Object struct {
	base
	Obj   core.ObjectData
	style mapview.Style
}

// NewObject creates a transient object marker.
func NewObject(obj core.ObjectData, fillColor, strokeColor string) *Object {
	return &Object{
		base: base{
			id:      newID("obj"),
			variant: VariantObj,
			pos:     obj.Position().XZ(),
			title:   objTitle(obj.ObjectMinData),
		},
		Obj:   obj,
		style: mapview.Style{FillColor: fillColor, StrokeColor: strokeColor, Radius: 7},
	}
}

func (m *Object) LayerSpec() mapview.Spec {
	style := m.style
	return mapview.Spec{
		ID:         m.id,
		Kind:       mapview.KindCircle,
		LatLng:     m.latLng(),
		Title:      m.title,
		Selectable: true,
		Style:      &style,
	}
}

// Pin is a plain marker dropped on a position, drawn in front of everything.
type Pin struct {
	base
	contextMenu []mapview.ContextAction
}

// NewPin creates a pin at pos. Context actions are optional.
func NewPin(pos core.XZ, actions ...mapview.ContextAction) *Pin {
	return &Pin{
		base:        base{id: newID("pin"), variant: VariantPin, pos: pos},
		contextMenu: actions,
	}
}

func (m *Pin) LayerSpec() mapview.Spec {
	return mapview.Spec{
		ID:          m.id,
		Kind:        mapview.KindPin,
		Pane:        mapview.PaneFront,
		LatLng:      m.latLng(),
		ContextMenu: m.contextMenu,
	}
}

// PlateauRespawn marks the respawn point shown with the plateau barrier.
type PlateauRespawn struct {
	base
}

// NewPlateauRespawn creates the respawn point marker.
func NewPlateauRespawn(pos core.XZ) *PlateauRespawn {
	return &PlateauRespawn{base: base{
		id:      newID("respawn"),
		variant: VariantPlateauRespawn,
		pos:     pos,
		title:   "Respawn point",
	}}
}

func (m *PlateauRespawn) LayerSpec() mapview.Spec {
	return mapview.Spec{
		ID:     m.id,
		Kind:   mapview.KindMarker,
		LatLng: m.latLng(),
		Icon:   "respawn",
		Title:  m.title,
	}
}

func objTitle(obj core.ObjectMinData) string {
	if obj.DisplayName != "" {
		return obj.DisplayName
	}
	return obj.Name
}
