package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/pkg/core"
)

type testLayer struct{ id string }

func (l testLayer) LayerID() string { return l.id }
func (l testLayer) LayerSpec() Spec { return Spec{ID: l.id, Kind: KindMarker} }

type recordingRenderer struct {
	added   []string
	removed []string
	updated []string
	views   []core.LatLng
	pans    []core.LatLng
}

func (r *recordingRenderer) AddLayer(s Spec)       { r.added = append(r.added, s.ID) }
func (r *recordingRenderer) RemoveLayer(id string) { r.removed = append(r.removed, id) }
func (r *recordingRenderer) UpdateLayer(s Spec)    { r.updated = append(r.updated, s.ID) }
func (r *recordingRenderer) SetView(c core.LatLng, _ int) {
	r.views = append(r.views, c)
}
func (r *recordingRenderer) PanTo(c core.LatLng) { r.pans = append(r.pans, c) }

func TestMap_AddRemoveLayerIsPaired(t *testing.T) {
	r := &recordingRenderer{}
	m := New(r)
	l := testLayer{id: "a"}

	m.AddLayer(l)
	m.AddLayer(l)
	assert.True(t, m.HasLayer(l))
	assert.Equal(t, 1, m.LayerCount())

	m.RemoveLayer(l)
	m.RemoveLayer(l)
	assert.False(t, m.HasLayer(l))

	assert.Equal(t, []string{"a"}, r.added)
	assert.Equal(t, []string{"a"}, r.removed)
}

func TestMap_UpdateLayerOnlyWhenAttached(t *testing.T) {
	r := &recordingRenderer{}
	m := New(r)
	l := testLayer{id: "a"}

	m.UpdateLayer(l)
	m.AddLayer(l)
	m.UpdateLayer(l)

	assert.Equal(t, []string{"a"}, r.updated)
}

func TestMap_SetViewFiresCallbacks(t *testing.T) {
	m := New(nil)
	var zooms []int
	zoomCalls, moveCalls := 0, 0
	m.RegisterZoomChangeCb(func(z int) { zooms = append(zooms, z) })
	m.RegisterZoomCb(func() { zoomCalls++ })
	m.RegisterMoveEndCb(func() { moveCalls++ })

	m.SetView(core.XZ{X: 10, Z: 20}, 5)
	m.SetView(core.XZ{X: 30, Z: 40}, 5)

	assert.Equal(t, []int{5}, zooms)
	assert.Equal(t, 1, zoomCalls)
	assert.Equal(t, 2, moveCalls)
	assert.Equal(t, core.Viewport{Center: core.XZ{X: 30, Z: 40}, Zoom: 5}, m.Viewport())
}

func TestMap_SetViewClampsZoom(t *testing.T) {
	m := New(nil)

	m.SetView(core.XZ{}, 42)

	assert.Equal(t, geo.MaxZoom, m.Zoom())
}

func TestMap_HandleViewIgnoresEcho(t *testing.T) {
	m := New(nil)
	moves := 0
	m.RegisterMoveEndCb(func() { moves++ })

	m.SetView(core.XZ{X: 1, Z: 2}, 4)
	m.HandleView(geo.FromXZ(core.XZ{X: 1, Z: 2}), 4, nil)
	assert.Equal(t, 1, moves)

	m.HandleView(geo.FromXZ(core.XZ{X: 5, Z: 2}), 4, nil)
	assert.Equal(t, 2, moves)
	assert.Equal(t, core.XZ{X: 5, Z: 2}, m.Center())
}

func TestMap_HandleViewStoresClientBounds(t *testing.T) {
	m := New(nil)
	b := geo.NewBounds(core.XZ{X: -1, Z: -1}, core.XZ{X: 1, Z: 1})

	m.HandleView(geo.FromXZ(core.XZ{X: 0, Z: 0}), 6, &b)

	assert.Equal(t, b.Max(), m.Bounds().Max())
}

func TestMap_HandleMarkerSelected(t *testing.T) {
	m := New(nil)
	l := testLayer{id: "a"}
	var selected Layer
	m.RegisterMarkerSelectedCb(func(l Layer) { selected = l })

	assert.False(t, m.HandleMarkerSelected("a"))

	m.AddLayer(l)
	require.True(t, m.HandleMarkerSelected("a"))
	assert.Equal(t, l, selected)
}

func TestMap_ContextActions(t *testing.T) {
	m := New(nil)
	called := 0
	m.RegisterContextAction("hide", func() { called++ })

	assert.True(t, m.HandleContextAction("hide"))
	m.UnregisterContextAction("hide")
	assert.False(t, m.HandleContextAction("hide"))
	assert.Equal(t, 1, called)
}

func TestMap_Destroy(t *testing.T) {
	r := &recordingRenderer{}
	m := New(r)
	m.AddLayer(testLayer{id: "a"})
	m.AddLayer(testLayer{id: "b"})

	m.Destroy()

	assert.Equal(t, 0, m.LayerCount())
	assert.ElementsMatch(t, []string{"a", "b"}, r.removed)
}
