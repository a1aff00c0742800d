package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/pkg/core"
)

func markersAt(points ...core.XZ) []Marker {
	out := make([]Marker, len(points))
	for i, p := range points {
		out[i] = NewStatic(VariantPlace, raw(p.X, p.Z), "village")
	}
	return out
}

func TestGroup_AddToMapAttachesNearViewport(t *testing.T) {
	m := newTestMap()
	markers := markersAt(core.XZ{X: 0, Z: 0}, core.XZ{X: 900, Z: 0}, core.XZ{X: 3000, Z: 0})
	g := NewGroup(markers, 0.5, true)

	g.AddToMap(m)

	// padded bounds are [-1000,1000]
	assert.True(t, m.HasLayer(markers[0]))
	assert.True(t, m.HasLayer(markers[1]))
	assert.False(t, m.HasLayer(markers[2]))
}

func TestGroup_UpdateFollowsViewport(t *testing.T) {
	m := newTestMap()
	markers := markersAt(core.XZ{X: 0, Z: 0}, core.XZ{X: 3000, Z: 0})
	g := NewGroup(markers, 0, true)
	g.AddToMap(m)

	b := geo.NewBounds(core.XZ{X: 2500, Z: -500}, core.XZ{X: 3500, Z: 500})
	m.HandleView(geo.FromXZ(core.XZ{X: 3000}), 4, &b)
	g.Update(false)

	assert.False(t, m.HasLayer(markers[0]))
	assert.True(t, m.HasLayer(markers[1]))
}

func TestGroup_UpdatesDisabledAttachesAllOnce(t *testing.T) {
	m := newTestMap()
	markers := markersAt(core.XZ{X: 0, Z: 0}, core.XZ{X: 3000, Z: 0})
	g := NewGroup(markers, 1.0, false)

	g.AddToMap(m)
	assert.Equal(t, 2, m.LayerCount())

	g.Update(false)
	assert.Equal(t, 2, m.LayerCount())

	g.Update(true)
	assert.Equal(t, 1, m.LayerCount())
}

func TestGroup_DestroyIsIdempotent(t *testing.T) {
	r := &countingRenderer{}
	m := mapview.New(r)
	g := NewGroup(markersAt(core.XZ{}, core.XZ{X: 1}), 1.0, false)
	g.AddToMap(m)

	g.Destroy()
	g.Destroy()

	assert.Equal(t, 2, r.added)
	assert.Equal(t, 2, r.removed)
	assert.False(t, g.Attached())
}

func TestRegistry_Defaults(t *testing.T) {
	r := DefaultRegistry()

	loc, ok := r.Lookup("Location")
	assert.True(t, ok)
	assert.Equal(t, 0.6, loc.PreloadPad)
	assert.True(t, loc.UpdatesEnabled)

	korok, _ := r.Lookup("Korok")
	assert.Equal(t, 1.0, korok.PreloadPad)
	assert.False(t, korok.UpdatesEnabled)

	_, ok = r.Lookup("Unknown")
	assert.False(t, ok)
	assert.Equal(t, []string{"Location", "Dungeon", "Place", "Tower", "Shop", "Labo", "Korok"}, r.Types())
}

func TestRegistry_DetailsViewFor(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, DetailsDungeon, r.DetailsViewFor(NewStatic(VariantDungeon, raw(0, 0), "")))
	assert.Equal(t, DetailsNone, r.DetailsViewFor(NewStatic(VariantKorok, raw(0, 0), "")))
	assert.Equal(t, DetailsObj, r.DetailsViewFor(NewSearchResult(core.ObjectMinData{}, mapview.Style{})))
	assert.Equal(t, DetailsObj, r.DetailsViewFor(NewObject(core.ObjectData{}, "#e02500", "#ff2a00")))
	assert.Equal(t, DetailsNone, r.DetailsViewFor(NewPin(core.XZ{})))
}

func TestSearchResult_SetStyle(t *testing.T) {
	m := NewSearchResult(core.ObjectMinData{Name: "Enemy_Bokoblin"}, mapview.Style{FillColor: "#fff"})

	assert.False(t, m.SetStyle(mapview.Style{FillColor: "#fff"}))
	assert.True(t, m.SetStyle(mapview.Style{FillColor: "#fff", Dimmed: true}))
	assert.True(t, m.LayerSpec().Style.Dimmed)
	assert.Equal(t, "Enemy_Bokoblin", m.Title())
}

type countingRenderer struct {
	mapview.NopRenderer
	added, removed int
}

func (r *countingRenderer) AddLayer(mapview.Spec) { r.added++ }
func (r *countingRenderer) RemoveLayer(string)    { r.removed++ }
