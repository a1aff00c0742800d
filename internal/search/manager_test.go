package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/marker"
	"github.com/objmap/mapcore/internal/testutil"
	"github.com/objmap/mapcore/pkg/core"
)

type openCall struct {
	m    marker.Marker
	zoom int
}

type fakeDetails struct {
	calls []openCall
}

func (d *fakeDetails) OpenMarker(m marker.Marker, zoom int) {
	d.calls = append(d.calls, openCall{m, zoom})
}

type recorded struct {
	kind, query string
	n           int
	err         error
}

type fakeRecorder struct {
	calls []recorded
}

func (r *fakeRecorder) RecordSearch(kind, query string, n int, _ time.Duration, err error) {
	r.calls = append(r.calls, recorded{kind, query, n, err})
}

type fixture struct {
	loop     *testutil.Loop
	provider *testutil.Provider
	surface  *mapview.Map
	details  *fakeDetails
	recorder *fakeRecorder
	mgr      *Manager
	changes  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		loop:     &testutil.Loop{},
		provider: testutil.NewProvider(),
		surface:  mapview.New(nil),
		details:  &fakeDetails{},
		recorder: &fakeRecorder{},
	}
	f.mgr = NewManager(context.Background(), Dependencies{
		Surface:  f.surface,
		Provider: f.provider,
		Sched:    f.loop,
		Details:  f.details,
		Recorder: f.recorder,
	}, Config{})
	f.mgr.OnChange(func() { f.changes++ })
	t.Cleanup(f.mgr.Destroy)

	f.provider.Objs["Korok"] = []core.ObjectMinData{
		testutil.Obj(1, "Korok", 0, 0),
		testutil.Obj(2, "Korok", 100, 100),
	}
	f.provider.Objs["Enemy"] = []core.ObjectMinData{
		testutil.Obj(3, "Enemy_Bokoblin", 10, 10),
		testutil.Obj(4, "Enemy_Moblin", 20, 20),
		testutil.Obj(5, "Enemy_Lizalfos", 30, 30),
	}
	return f
}

func (f *fixture) search(query string) {
	f.mgr.query = query
	f.mgr.ExecuteSearch()
	f.loop.Drain()
}

func TestManager_SearchAttachesResults(t *testing.T) {
	f := newFixture(t)

	f.search("Korok")

	assert.False(t, f.mgr.Searching())
	assert.False(t, f.mgr.LastSearchFailed())
	assert.Len(t, f.mgr.Results(), 2)
	assert.Equal(t, 2, f.surface.LayerCount())
	require.Len(t, f.provider.Calls, 1)
	assert.Equal(t, DefaultMaxResults, f.provider.Calls[0].Limit)
	assert.Equal(t, []recorded{{KindLive, "Korok", 2, nil}}, f.recorder.calls)
}

func TestManager_SearchReplacesPreviousResults(t *testing.T) {
	f := newFixture(t)
	f.search("Enemy")
	old := f.mgr.ResultMarkers()

	f.search("Korok")

	assert.Equal(t, 2, f.surface.LayerCount())
	for _, m := range old {
		assert.False(t, f.surface.HasLayer(m))
	}
}

func TestManager_SearchNormalizesHexQuery(t *testing.T) {
	f := newFixture(t)

	f.search("0x1A2B3C")

	assert.Equal(t, []string{"1715004"}, f.provider.Queries())
}

func TestManager_SearchFailure(t *testing.T) {
	f := newFixture(t)
	f.search("Korok")
	f.provider.Errs["broken"] = errors.New("boom")

	f.search("broken")

	assert.True(t, f.mgr.LastSearchFailed())
	assert.Empty(t, f.mgr.Results())
	assert.Empty(t, f.mgr.ResultMarkers())
	assert.Equal(t, 0, f.surface.LayerCount())
	assert.Empty(t, f.mgr.State().Results)
	assert.NotNil(t, f.mgr.State().Results)

	f.search("Korok")
	assert.False(t, f.mgr.LastSearchFailed())
}

func TestManager_EmptyQueryClearsWithoutFetch(t *testing.T) {
	f := newFixture(t)
	f.search("Korok")

	f.search("")

	assert.Empty(t, f.mgr.Results())
	assert.Equal(t, 0, f.surface.LayerCount())
	assert.Len(t, f.provider.Calls, 1)
	assert.False(t, f.mgr.Searching())
}

func TestManager_StaleSearchIsDiscarded(t *testing.T) {
	f := newFixture(t)

	f.mgr.query = "Enemy"
	f.mgr.ExecuteSearch()
	f.mgr.query = "Korok"
	f.mgr.ExecuteSearch()
	require.Equal(t, 2, f.loop.Pending())

	// the newer search completes first
	f.loop.RunGo(1)
	assert.Len(t, f.mgr.Results(), 2)

	// the slow, stale one must not overwrite it
	f.loop.RunGo(0)
	assert.Len(t, f.mgr.Results(), 2)
	assert.Equal(t, "Korok", f.mgr.Results()[0].Name)
	assert.Equal(t, 2, f.surface.LayerCount())
	assert.False(t, f.mgr.Searching())
}

func TestManager_SetQuerySchedulesDebouncedSearch(t *testing.T) {
	f := newFixture(t)
	var timers []*fakeTimer
	f.mgr.debouncer.afterFunc = func(_ time.Duration, fn func()) timer {
		ft := &fakeTimer{fn: fn}
		timers = append(timers, ft)
		return ft
	}

	f.mgr.SetQuery("K")
	f.mgr.SetQuery("Ko")
	f.mgr.SetQuery("Enemy")
	assert.True(t, f.mgr.Searching())
	assert.Empty(t, f.provider.Calls)

	f.mgr.SetQuery("Korok")
	timers[len(timers)-1].fn()
	f.loop.Drain()

	// the search observes the query at fire time
	assert.Equal(t, []string{"Korok"}, f.provider.Queries())
	assert.Len(t, f.mgr.Results(), 2)
	assert.False(t, f.mgr.Searching())
}

func TestManager_AddGroupTwiceKeepsOne(t *testing.T) {
	f := newFixture(t)

	f.mgr.AddGroup("Korok", "")
	f.mgr.AddGroup("Korok", "Seeds")
	f.loop.Drain()
	f.mgr.AddGroup("Korok", "")
	f.loop.Drain()

	require.Len(t, f.mgr.Groups(), 1)
	assert.Equal(t, "Korok", f.mgr.Groups()[0].Label)
	assert.Len(t, f.provider.Calls, 1)
	assert.Equal(t, 2, f.surface.LayerCount())
}

func TestManager_AddGroupFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.Errs["broken"] = errors.New("boom")

	f.mgr.AddGroup("broken", "")
	f.loop.Drain()

	assert.Empty(t, f.mgr.Groups())
	require.Error(t, f.mgr.LastError())
	assert.Contains(t, f.mgr.State().LastError, "broken")

	// retry is possible once the pending request is done
	delete(f.provider.Errs, "broken")
	f.mgr.AddGroup("broken", "")
	f.loop.Drain()
	assert.Len(t, f.mgr.Groups(), 1)
	assert.NoError(t, f.mgr.LastError())
}

func TestManager_RemoveGroupDetachesMarkers(t *testing.T) {
	f := newFixture(t)
	f.mgr.AddGroup("Korok", "")
	f.mgr.AddGroup("Enemy", "")
	f.loop.Drain()
	require.Equal(t, 5, f.surface.LayerCount())

	f.mgr.RemoveGroup(0)

	require.Len(t, f.mgr.Groups(), 1)
	assert.Equal(t, "Enemy", f.mgr.Groups()[0].Query)
	assert.Equal(t, 3, f.surface.LayerCount())

	f.mgr.RemoveGroup(5)
	assert.Len(t, f.mgr.Groups(), 1)
}

func TestManager_ToggleGroup(t *testing.T) {
	f := newFixture(t)
	f.mgr.AddGroup("Korok", "")
	f.loop.Drain()

	f.mgr.ToggleGroup(0)
	assert.False(t, f.mgr.Groups()[0].Enabled())
	assert.Equal(t, 0, f.surface.LayerCount())

	f.mgr.ToggleGroup(0)
	assert.True(t, f.mgr.Groups()[0].Enabled())
	assert.Equal(t, 2, f.surface.LayerCount())
}

func TestManager_RestoreGroupKeepsDisabledState(t *testing.T) {
	f := newFixture(t)

	f.mgr.RestoreGroup("Korok", "Koroks", false)
	f.loop.Drain()

	require.Len(t, f.mgr.Groups(), 1)
	g := f.mgr.Groups()[0]
	assert.False(t, g.Enabled())
	assert.Equal(t, "Koroks", g.Label)
	assert.Equal(t, 0, f.surface.LayerCount())

	f.mgr.ToggleGroup(0)
	assert.Equal(t, 2, f.surface.LayerCount())
}

func TestManager_ViewGroupRunsLiveSearch(t *testing.T) {
	f := newFixture(t)
	f.mgr.AddGroup("Enemy", "")
	f.loop.Drain()

	f.mgr.ViewGroup(0)
	f.loop.Drain()

	assert.Equal(t, "Enemy", f.mgr.Query())
	assert.Len(t, f.mgr.Results(), 3)
	// the group keeps its own markers
	assert.Equal(t, 6, f.surface.LayerCount())
}

func TestManager_AddExcludeHidesMembers(t *testing.T) {
	f := newFixture(t)
	f.provider.IDs["Moblin"] = []int64{4}
	f.mgr.AddGroup("Enemy", "")
	f.loop.Drain()
	f.mgr.query = "Enemy"

	f.mgr.AddExclude("Moblin", "")
	// not applied before it is resolved
	assert.Empty(t, f.mgr.Excludes())
	f.loop.Drain()

	require.Len(t, f.mgr.Excludes(), 1)
	g := f.mgr.Groups()[0]
	assert.Equal(t, 2, g.VisibleCount())
	for _, m := range g.Markers() {
		assert.Equal(t, m.Obj.ObjID != 4, f.surface.HasLayer(m))
	}
	// the live search re-ran without the excluded object
	assert.Len(t, f.mgr.Results(), 2)
}

func TestManager_RemoveExcludeRestoresMembers(t *testing.T) {
	f := newFixture(t)
	f.provider.IDs["Moblin"] = []int64{4}
	f.mgr.AddGroup("Enemy", "")
	f.mgr.AddExclude("Moblin", "")
	f.loop.Drain()
	require.Equal(t, 2, f.mgr.Groups()[0].VisibleCount())

	f.mgr.RemoveExclude(0)

	assert.Empty(t, f.mgr.Excludes())
	assert.Equal(t, 3, f.mgr.Groups()[0].VisibleCount())
	assert.Equal(t, 3, f.surface.LayerCount())
}

func TestManager_RemoveExcludeOnlyRefreshesVisibility(t *testing.T) {
	f := newFixture(t)
	styled := 0
	f.mgr.deps.StyleOf = func(_ core.ObjectMinData, base mapview.Style) mapview.Style {
		styled++
		return base
	}
	f.provider.IDs["Moblin"] = []int64{4}
	f.mgr.AddGroup("Enemy", "")
	f.mgr.AddExclude("Moblin", "")
	f.loop.Drain()

	before := styled
	f.mgr.RemoveExclude(0)

	assert.Equal(t, before, styled)
}

func TestManager_AddExcludeFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.Errs["broken"] = errors.New("boom")

	f.mgr.AddExclude("broken", "")
	f.loop.Drain()

	assert.Empty(t, f.mgr.Excludes())
	assert.Error(t, f.mgr.LastError())
}

func TestManager_AddCurrentQueryAsGroup(t *testing.T) {
	f := newFixture(t)
	f.provider.Objs["1715004"] = []core.ObjectMinData{testutil.Obj(1715004, "TBox", 5, 5)}
	f.search("0x1A2B3C")

	f.mgr.AddCurrentQueryAsGroup("")
	f.loop.Drain()

	require.Len(t, f.mgr.Groups(), 1)
	assert.Equal(t, "1715004", f.mgr.Groups()[0].Query)
	assert.Equal(t, "", f.mgr.Query())
	assert.Empty(t, f.mgr.Results())
	assert.Equal(t, 1, f.surface.LayerCount())
}

func TestManager_ExcludeCurrentQuery(t *testing.T) {
	f := newFixture(t)
	f.search("Korok")

	f.mgr.ExcludeCurrentQuery()
	f.loop.Drain()

	require.Len(t, f.mgr.Excludes(), 1)
	assert.Equal(t, "Korok", f.mgr.Excludes()[0].Query)
	assert.Equal(t, 2, f.mgr.Excludes()[0].Len())
	assert.Equal(t, "", f.mgr.Query())
	assert.Equal(t, 0, f.surface.LayerCount())
}

func TestManager_ExcludeCurrentQuery_FailureClearsResults(t *testing.T) {
	f := newFixture(t)
	f.search("Korok")
	require.Equal(t, 2, f.surface.LayerCount())
	f.provider.Errs["Korok"] = errors.New("boom")

	f.mgr.ExcludeCurrentQuery()
	f.loop.Drain()

	assert.Empty(t, f.mgr.Excludes())
	assert.Equal(t, "", f.mgr.Query())
	assert.Empty(t, f.mgr.Results())
	assert.Equal(t, 0, f.surface.LayerCount())
	assert.EqualError(t, f.mgr.LastError(), `adding exclusion "Korok": boom`)
}

func TestManager_ExcludeCurrentQuery_AlreadyExcluded(t *testing.T) {
	f := newFixture(t)
	f.mgr.AddExclude("Korok", "")
	f.loop.Drain()
	f.mgr.query = "Korok"
	f.mgr.ExecuteSearch()
	f.loop.Drain()

	f.mgr.ExcludeCurrentQuery()
	f.loop.Drain()

	assert.Len(t, f.mgr.Excludes(), 1)
	assert.Equal(t, "", f.mgr.Query())
	assert.Equal(t, 0, f.surface.LayerCount())
}

func TestManager_JumpToResult(t *testing.T) {
	f := newFixture(t)
	f.search("Korok")

	f.mgr.JumpToResult(1)
	f.mgr.JumpToResult(7)

	require.Len(t, f.details.calls, 1)
	assert.Equal(t, JumpZoom, f.details.calls[0].zoom)
	assert.Same(t, f.mgr.ResultMarkers()[1], f.details.calls[0].m)
}

func TestManager_AddGroupForMapUnit(t *testing.T) {
	f := newFixture(t)

	f.mgr.AddGroupForMapUnit(core.LatLng{Lat: -1875, Lng: -965})
	f.mgr.AddGroupForMapUnit(core.LatLng{Lat: 0, Lng: 9000})
	f.loop.Drain()

	assert.Equal(t, []string{`map:"MainField/E-6"`}, f.provider.Queries())
	assert.Len(t, f.mgr.Groups(), 1)
}

func TestManager_ApplyPreset(t *testing.T) {
	f := newFixture(t)

	f.mgr.ApplyPreset(0)
	f.loop.Drain()

	assert.Equal(t, Presets[0].Query, f.mgr.Query())
	assert.Equal(t, []string{Presets[0].Query}, f.provider.Queries())
}

func TestManager_SettingsChangeRestylesGroups(t *testing.T) {
	f := newFixture(t)
	hardMode := false
	f.mgr.deps.StyleOf = func(obj core.ObjectMinData, base mapview.Style) mapview.Style {
		base.Dimmed = !hardMode
		return base
	}
	f.mgr.AddGroup("Korok", "")
	f.loop.Drain()
	require.True(t, f.mgr.Groups()[0].Markers()[0].Style().Dimmed)

	hardMode = true
	f.mgr.OnZoom()
	assert.True(t, f.mgr.Groups()[0].Markers()[0].Style().Dimmed)

	f.mgr.OnSettingsChanged()
	assert.False(t, f.mgr.Groups()[0].Markers()[0].Style().Dimmed)
}

func TestManager_DestroyDetachesAndIgnoresLateResults(t *testing.T) {
	f := newFixture(t)
	f.search("Korok")
	f.mgr.AddGroup("Enemy", "")
	f.loop.Drain()
	f.mgr.AddGroup("Korok", "")
	f.mgr.query = "Enemy"
	f.mgr.ExecuteSearch()

	f.mgr.Destroy()
	f.loop.Drain()

	assert.Equal(t, 0, f.surface.LayerCount())
	assert.Empty(t, f.mgr.Groups())
}

func TestManager_StateSnapshot(t *testing.T) {
	f := newFixture(t)
	f.mgr.AddGroup("Korok", "Seeds")
	f.loop.Drain()
	f.search("Enemy")

	s := f.mgr.State()

	assert.Equal(t, "Enemy", s.Query)
	assert.Len(t, s.Results, 3)
	require.Len(t, s.Groups, 1)
	assert.Equal(t, "Seeds", s.Groups[0].Label)
	assert.Equal(t, 2, s.Groups[0].Count)
	assert.True(t, s.Groups[0].Enabled)
	assert.Len(t, s.Presets, len(Presets))
	assert.Greater(t, f.changes, 0)
}
