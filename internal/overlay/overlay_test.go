package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objmap/mapcore/internal/details"
	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/marker"
	"github.com/objmap/mapcore/pkg/core"
)

type fakeOpener struct {
	opened []marker.Marker
	zooms  []int
}

func (f *fakeOpener) OpenMarker(m marker.Marker, zoom int) {
	f.opened = append(f.opened, m)
	f.zooms = append(f.zooms, zoom)
}

func setup() (*Controller, *mapview.Map, *fakeOpener) {
	m := mapview.New(nil)
	o := &fakeOpener{}
	return NewController(m, o, nil), m, o
}

func TestShowBarrier(t *testing.T) {
	c, m, _ := setup()

	c.ShowBarrier()

	assert.True(t, c.BarrierShown())
	assert.Equal(t, 2, m.LayerCount())
	assert.Equal(t, core.Viewport{Center: core.XZ{X: -965, Z: 1875}, Zoom: 5}, m.Viewport())

	spec := c.barrier.LayerSpec()
	assert.Equal(t, mapview.KindRectangle, spec.Kind)
	assert.Equal(t, []core.LatLng{{Lat: -1400, Lng: -1600}, {Lat: -2400, Lng: -350}}, spec.Bounds)
	assert.Equal(t, "#c50000", spec.Style.StrokeColor)
	assert.True(t, c.barrier.Bounds().Contains(c.respawn.XZ()))
}

func TestShowBarrier_OnceAndRecenters(t *testing.T) {
	c, m, _ := setup()
	c.ShowBarrier()
	m.SetView(core.XZ{X: 0, Z: 0}, 3)

	c.ShowBarrier()

	assert.Equal(t, 2, m.LayerCount())
	assert.Equal(t, core.XZ{X: -965, Z: 1875}, m.Center())
}

func TestHideBarrier_ViaContextAction(t *testing.T) {
	c, m, _ := setup()
	c.ShowBarrier()

	require.True(t, m.HandleContextAction(ActionHideBarrier))

	assert.False(t, c.BarrierShown())
	assert.Equal(t, 0, m.LayerCount())
	assert.False(t, m.HandleContextAction(ActionHideBarrier))

	// shown again after hiding
	c.ShowBarrier()
	assert.Equal(t, 2, m.LayerCount())
}

func TestGotoCoords_ReplacesPin(t *testing.T) {
	c, m, _ := setup()
	m.SetView(core.XZ{}, 6)

	c.GotoCoords(core.XZ{X: 10, Z: 20})
	first := c.GotoPin()
	c.GotoCoords(core.XZ{X: 30, Z: 40})

	assert.False(t, m.HasLayer(first))
	assert.True(t, m.HasLayer(c.GotoPin()))
	assert.Equal(t, 1, m.LayerCount())
	assert.Equal(t, core.Viewport{Center: core.XZ{X: 30, Z: 40}, Zoom: 6}, m.Viewport())
}

func TestHideGotoPin(t *testing.T) {
	c, m, _ := setup()
	c.GotoCoords(core.XZ{X: 10, Z: 20})

	require.True(t, m.HandleContextAction(ActionHideGoto))

	assert.Nil(t, c.GotoPin())
	assert.Equal(t, 0, m.LayerCount())
	c.HideGotoPin()
}

func TestOpenObject(t *testing.T) {
	c, m, o := setup()
	obj := core.ObjectData{ObjectMinData: core.ObjectMinData{ObjID: 42, Name: "TBox_Field_Iron", Pos: [3]float64{5, 0, 6}}}

	c.OpenObject(obj)
	first := c.TempObject()
	c.OpenObject(obj)

	assert.False(t, m.HasLayer(first))
	assert.True(t, m.HasLayer(c.TempObject()))
	assert.Equal(t, 1, m.LayerCount())
	require.Len(t, o.opened, 2)
	assert.Same(t, c.TempObject(), o.opened[1])
	assert.Equal(t, []int{details.AutoZoom, details.AutoZoom}, o.zooms)
	assert.Equal(t, "#e02500", c.TempObject().LayerSpec().Style.FillColor)
}

func TestBackgroundClickRemovesTempObject(t *testing.T) {
	c, m, _ := setup()
	c.OpenObject(core.ObjectData{})
	c.GotoCoords(core.XZ{X: 1, Z: 2})

	m.HandleClick()

	assert.Nil(t, c.TempObject())
	// the goto pin stays
	assert.Equal(t, 1, m.LayerCount())
}

func TestDestroy(t *testing.T) {
	c, m, _ := setup()
	c.ShowBarrier()
	c.GotoCoords(core.XZ{X: 1, Z: 2})
	c.OpenObject(core.ObjectData{})

	c.Destroy()

	assert.Equal(t, 0, m.LayerCount())
	assert.False(t, m.HandleContextAction(ActionHideGoto))
}
