package marker

import "github.com/objmap/mapcore/pkg/core"

// Details views a marker can bind to.
const (
	DetailsNone    = ""
	DetailsObj     = "obj"
	DetailsDungeon = "dungeon"
)

// Descriptor describes how markers of one type are built and updated.
type Descriptor struct {
	Variant        Variant
	PreloadPad     float64
	UpdatesEnabled bool
	DetailsView    string
	FilterIcon     string
	FilterLabel    string
}

// New builds a marker of this type from a map summary entry.
func (d Descriptor) New(raw core.RawMarker) Marker {
	return NewStatic(d.Variant, raw, d.FilterIcon)
}

// entry mirrors Descriptor with optional fields so defaults can be applied
// once when the table is built.
type entry struct {
	variant        Variant
	preloadPad     *float64
	updatesEnabled *bool
	detailsView    string
	filterIcon     string
	filterLabel    string
}

func ptr[T any](v T) *T { return &v }

var table = []entry{
	{variant: VariantLocation, preloadPad: ptr(0.6), filterIcon: "checkpoint", filterLabel: "Locations"},
	{variant: VariantDungeon, detailsView: DetailsDungeon, updatesEnabled: ptr(false), filterIcon: "dungeon", filterLabel: "Shrines"},
	{variant: VariantPlace, filterIcon: "village", filterLabel: "Places"},
	{variant: VariantTower, updatesEnabled: ptr(false), filterIcon: "tower", filterLabel: "Towers"},
	{variant: VariantShop, filterIcon: "shop_yorozu", filterLabel: "Shops"},
	{variant: VariantLabo, updatesEnabled: ptr(false), filterIcon: "labo", filterLabel: "Tech Labs"},
	{variant: VariantKorok, updatesEnabled: ptr(false), filterIcon: "korok", filterLabel: "Koroks"},
}

// Registry is the immutable marker type table.
type Registry struct {
	order       []string
	descriptors map[string]Descriptor
}

// DefaultRegistry returns the table of map marker types.
func DefaultRegistry() *Registry {
	r := &Registry{descriptors: make(map[string]Descriptor, len(table))}
	for _, e := range table {
		d := Descriptor{
			Variant:        e.variant,
			PreloadPad:     1.0,
			UpdatesEnabled: true,
			DetailsView:    e.detailsView,
			FilterIcon:     e.filterIcon,
			FilterLabel:    e.filterLabel,
		}
		if e.preloadPad != nil {
			d.PreloadPad = *e.preloadPad
		}
		if e.updatesEnabled != nil {
			d.UpdatesEnabled = *e.updatesEnabled
		}
		name := string(e.variant)
		r.order = append(r.order, name)
		r.descriptors[name] = d
	}
	return r
}

// Lookup returns the descriptor of a type name.
func (r *Registry) Lookup(typ string) (Descriptor, bool) {
	d, ok := r.descriptors[typ]
	return d, ok
}

// Types returns the type names in table order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.order...)
}

// DetailsViewFor resolves the details pane a marker binds to. Generic objects
// and search results always use the object view; registry variants use their
// declared view; anything else has no pane.
func (r *Registry) DetailsViewFor(m Marker) string {
	switch m.Variant() {
	case VariantObj, VariantSearchResult:
		return DetailsObj
	}
	if d, ok := r.descriptors[string(m.Variant())]; ok {
		return d.DetailsView
	}
	return DetailsNone
}
