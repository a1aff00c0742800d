package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/radar"
	"github.com/objmap/mapcore/internal/settings"
	"github.com/objmap/mapcore/internal/testutil"
	"github.com/objmap/mapcore/pkg/core"
	"github.com/objmap/mapcore/pkg/streaming"
)

type objects struct {
	*testutil.Provider
}

func (objects) GetObj(_ context.Context, objID int64) (core.ObjectData, error) {
	return core.ObjectData{ObjectMinData: testutil.Obj(objID, "Enemy_Lynel_Dark", 100, 100)}, nil
}

type memRepo struct {
	mu    sync.Mutex
	saved map[uuid.UUID]settings.Settings
}

func (r *memRepo) Load(_ context.Context, id uuid.UUID) (settings.Settings, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.saved[id]
	return s, ok, nil
}

func (r *memRepo) Save(_ context.Context, id uuid.UUID, s settings.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[id] = s
	return nil
}

func (r *memRepo) get(id uuid.UUID) (settings.Settings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.saved[id]
	return s, ok
}

func testServer(t *testing.T, repo settings.Repository) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{QueueSize: 64}, Dependencies{
		Objects: objects{testutil.NewProvider()},
		MapInfo: radar.NewStaticMapInfoStore(core.MapInfo{Markers: map[string][]core.RawMarker{
			"Location": {{Name: "Hyrule Castle", Pos: [3]float64{0, 0, 0}}},
		}}),
		Settings: repo,
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *ws.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	conn, _, err := ws.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads envelopes until one of msgType arrives.
func readUntil(t *testing.T, conn *ws.Conn, msgType string) streaming.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)
		var env streaming.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if env.Type == msgType {
			return env
		}
	}
}

func send(t *testing.T, conn *ws.Conn, msgType string, payload any) {
	t.Helper()
	data, err := marshalEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(ws.TextMessage, data))
}

func TestHealthcheck(t *testing.T) {
	_, srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthcheck")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestMarshalEnvelope(t *testing.T) {
	data, err := marshalEnvelope(streaming.TypeViewPan, streaming.ViewSetPayload{Center: core.LatLng{Lat: -2, Lng: 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"view:pan","payload":{"center":{"lat":-2,"lng":1}}}`, string(data))

	data, err = marshalEnvelope(streaming.TypeSidebarClose, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sidebar:close"}`, string(data))

	_, err = marshalEnvelope("bad", make(chan int))
	assert.Error(t, err)
}

func TestWebSocket_MountsAtInitialRoute(t *testing.T) {
	s, srv := testServer(t, nil)
	conn := dial(t, srv, "x=100&z=200&zoom=5")

	var view streaming.ViewSetPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, streaming.TypeViewSet).Payload, &view))
	assert.Equal(t, core.LatLng{Lat: -200, Lng: 100}, view.Center)
	assert.Equal(t, 5, view.Zoom)

	var ready streaming.ReadyPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, streaming.TypeSessionReady).Payload, &ready))
	assert.NotEmpty(t, ready.SessionID)
	assert.Contains(t, ready.Types, "Location")
	assert.Equal(t, 1, s.SessionCount())
}

func TestWebSocket_HandlesClientMessages(t *testing.T) {
	_, srv := testServer(t, nil)
	conn := dial(t, srv, "")
	readUntil(t, conn, streaming.TypeSessionReady)

	send(t, conn, streaming.TypeOverlayBarrier, nil)

	for {
		var spec mapview.Spec
		require.NoError(t, json.Unmarshal(readUntil(t, conn, streaming.TypeLayerAdd).Payload, &spec))
		if spec.Kind == mapview.KindRectangle {
			assert.Len(t, spec.Bounds, 2)
			break
		}
	}
}

func TestWebSocket_RejectsBadMessages(t *testing.T) {
	_, srv := testServer(t, nil)
	conn := dial(t, srv, "")
	readUntil(t, conn, streaming.TypeSessionReady)

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`not json`)))
	var e streaming.ErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, streaming.TypeSessionError).Payload, &e))
	assert.Equal(t, "malformed envelope", e.Message)

	send(t, conn, "map:teleport", nil)
	require.NoError(t, json.Unmarshal(readUntil(t, conn, streaming.TypeSessionError).Payload, &e))
	assert.Equal(t, "map:teleport", e.For)

	send(t, conn, streaming.TypeOverlayGoto, streaming.GotoPayload{Coords: "nowhere"})
	require.NoError(t, json.Unmarshal(readUntil(t, conn, streaming.TypeSessionError).Payload, &e))
	assert.Equal(t, streaming.TypeOverlayGoto, e.For)
}

func TestWebSocket_SavesSettingsOnDisconnect(t *testing.T) {
	repo := &memRepo{saved: map[uuid.UUID]settings.Settings{}}
	s, srv := testServer(t, repo)
	id := uuid.New()

	conn := dial(t, srv, ClientParam+"="+id.String()+"&x=10&z=20&zoom=4")
	readUntil(t, conn, streaming.TypeSessionReady)
	send(t, conn, streaming.TypeSettingsUpdate, streaming.SettingsPayload{ShownGroups: []string{"Tower"}, HardMode: true})
	readUntil(t, conn, streaming.TypeSettingsState)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		_, ok := repo.get(id)
		return ok && s.SessionCount() == 0
	}, 5*time.Second, 10*time.Millisecond)

	saved, _ := repo.get(id)
	assert.True(t, saved.HardMode)
	assert.True(t, saved.ShownGroups.Has("Tower"))
	require.NotNil(t, saved.LastView)
	assert.Equal(t, core.Viewport{Center: core.XZ{X: 10, Z: 20}, Zoom: 4}, *saved.LastView)

	// a new connection with the same client id restores them
	conn = dial(t, srv, ClientParam+"="+id.String())
	var st streaming.SettingsPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, streaming.TypeSettingsState).Payload, &st))
	assert.Equal(t, []string{"Tower"}, st.ShownGroups)
	assert.True(t, st.HardMode)
}

func TestShutdown_DisconnectsClients(t *testing.T) {
	s, srv := testServer(t, nil)
	conn := dial(t, srv, "")
	readUntil(t, conn, streaming.TypeSessionReady)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	assert.Equal(t, 0, s.SessionCount())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestClientID(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest(http.MethodGet, "/ws?client="+id.String(), nil)
	assert.Equal(t, id, clientID(r))

	r = httptest.NewRequest(http.MethodGet, "/ws?client=garbage", nil)
	assert.NotEqual(t, uuid.Nil, clientID(r))
}
