// Package session runs the map of one connected client. It builds every map
// component, hooks them to each other and translates client messages into
// operations. All session state is owned by a single dispatcher loop.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/objmap/mapcore/internal/details"
	"github.com/objmap/mapcore/internal/dispatcher"
	"github.com/objmap/mapcore/internal/drawing"
	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/marker"
	"github.com/objmap/mapcore/internal/overlay"
	"github.com/objmap/mapcore/internal/route"
	"github.com/objmap/mapcore/internal/search"
	"github.com/objmap/mapcore/internal/sets"
	"github.com/objmap/mapcore/internal/settings"
	"github.com/objmap/mapcore/pkg/core"
	"github.com/objmap/mapcore/pkg/streaming"
)

const (
	// DefaultQueueSize is the number of client messages a session buffers.
	DefaultQueueSize = 256

	closeSaveTimeout = 5 * time.Second
)

// ObjectService is the object search backend.
type ObjectService interface {
	search.Provider
	GetObj(ctx context.Context, objID int64) (core.ObjectData, error)
}

// MapInfoSource serves the main field summary.
type MapInfoSource interface {
	InfoMainField() core.MapInfo
}

// Dependencies holds all dependencies of a Session.
type Dependencies struct {
	Client   Client
	Objects  ObjectService
	MapInfo  MapInfoSource
	Settings *settings.Store
	Registry *marker.Registry     // defaults to marker.DefaultRegistry
	Recorder search.Recorder      // optional
	Sched    dispatcher.Scheduler // defaults to the session loop
	Logger   *slog.Logger
}

// Config tunes a Session.
type Config struct {
	QueueSize int
	Search    search.Config
}

// Session is the server side of one client map.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	deps   Dependencies
	logger *slog.Logger

	disp     *dispatcher.Dispatcher
	handlers map[string]dispatcher.HandlerFunc
	out      sender

	surface  *mapview.Map
	sidebar  *sidebar
	markers  *marker.Manager
	details  *details.Controller
	search   *search.Manager
	binder   *route.Binder
	overlays *overlay.Controller
	drawing  *drawing.Controller

	running atomic.Bool
	stopped chan struct{}
	mounted bool
	closed  bool
}

// New builds a session with an empty draw layer attached.
func New(ctx context.Context, id string, deps Dependencies, cfg Config) (*Session, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Registry == nil {
		deps.Registry = marker.DefaultRegistry()
	}
	if deps.Settings == nil {
		deps.Settings = settings.NewStore(uuid.New(), nil, deps.Logger)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	logger := deps.Logger.With("session", id)

	disp, err := dispatcher.New(logger, cfg.QueueSize)
	if err != nil {
		return nil, fmt.Errorf("creating session loop: %w", err)
	}
	if deps.Sched == nil {
		deps.Sched = disp
	}

	ctx, cancel := context.WithCancel(ctx)
	out := sender{client: deps.Client, logger: logger}
	s := &Session{
		id:       id,
		ctx:      ctx,
		cancel:   cancel,
		deps:     deps,
		logger:   logger,
		disp:     disp,
		handlers: make(map[string]dispatcher.HandlerFunc),
		out:      out,
		sidebar:  &sidebar{sender: out},
		stopped:  make(chan struct{}),
	}

	s.surface = mapview.New(renderer{out})
	s.markers = marker.NewManager(s.surface, deps.Registry, logger)
	s.details = details.NewController(s.surface, s.sidebar, deps.Registry, logger)
	s.search = search.NewManager(ctx, search.Dependencies{
		Surface:  s.surface,
		Provider: deps.Objects,
		Sched:    deps.Sched,
		Details:  s.details,
		Recorder: deps.Recorder,
		StyleOf:  s.styleOf,
		Logger:   logger,
	}, cfg.Search)
	s.binder = route.NewBinder(s.surface, router{out}, logger)
	s.overlays = overlay.NewController(s.surface, s.details, logger)
	s.drawing = drawing.NewController(s.surface, s.sidebar, drawControl{out}, logger)

	s.hook()
	s.registerHandlers()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// hook connects the components to each other.
func (s *Session) hook() {
	s.surface.RegisterMoveEndCb(s.markers.Update)
	s.surface.RegisterZoomChangeCb(func(int) { s.reconcileMarkers() })
	s.surface.RegisterZoomCb(s.search.OnZoom)
	s.surface.RegisterMarkerSelectedCb(func(l mapview.Layer) {
		if m, ok := l.(marker.Marker); ok {
			s.details.OpenMarker(m, details.AutoZoom)
		}
	})
	s.surface.RegisterShowAllObjsCb(s.search.AddGroupForMapUnit)
	s.surface.RegisterClickCb(s.details.Close)

	s.search.OnChange(s.sendSearchState)

	s.deps.Settings.RegisterCallback(func() {
		s.reconcileMarkers()
		s.search.OnSettingsChanged()
		s.sendSettingsState()
	})
	s.deps.Settings.RegisterBeforeSaveCallback(s.snapshot)
}

// styleOf dims hard mode objects unless hard mode is enabled.
func (s *Session) styleOf(obj core.ObjectMinData, base mapview.Style) mapview.Style {
	if obj.HardMode && !s.deps.Settings.HardMode() {
		base.Dimmed = true
	}
	return base
}

func (s *Session) reconcileMarkers() {
	var data map[string][]core.RawMarker
	if s.deps.MapInfo != nil {
		data = s.deps.MapInfo.InfoMainField().Markers
	}
	s.markers.Reconcile(s.deps.Settings.ShownGroups(), data)
}

// snapshot copies live state into the settings before they are saved.
func (s *Session) snapshot() {
	if geojson, err := s.drawing.GeoJSON(); err != nil {
		s.logger.Warn("failed to serialize draw layer", "error", err)
	} else {
		s.deps.Settings.SetDrawLayerGeoJSON(geojson)
	}

	groups := make([]settings.SearchGroup, 0, len(s.search.Groups()))
	for _, g := range s.search.Groups() {
		groups = append(groups, settings.SearchGroup{Query: g.Query, Label: g.Label, Enabled: g.Enabled()})
	}
	s.deps.Settings.SetSearchGroups(groups)
	if s.mounted {
		s.deps.Settings.SetLastView(s.surface.Viewport())
	}
}

// Mount restores the stored state and shows the map at the initial route.
// An empty route falls back to the last stored view. It must run on the
// loop, or before Run.
func (s *Session) Mount(initial core.RouteParams) {
	if s.mounted {
		return
	}
	s.mounted = true

	// Load logs invalid layers itself
	_ = s.drawing.Load(s.deps.Settings.DrawLayerGeoJSON())
	for _, g := range s.deps.Settings.SearchGroups() {
		s.search.RestoreGroup(g.Query, g.Label, g.Enabled)
	}

	if initial == (core.RouteParams{}) {
		if v, ok := s.deps.Settings.LastView(); ok {
			initial = route.Format(v)
		}
	}
	s.binder.Mount(initial)
	s.reconcileMarkers()

	s.out.send(streaming.TypeSessionReady, streaming.ReadyPayload{
		SessionID: s.id,
		Types:     s.deps.Registry.Types(),
	})
	s.sendSettingsState()
	s.sendSearchState()
	s.logger.Info("session mounted", "view", s.surface.Viewport())
}

func (s *Session) sendSearchState() {
	s.out.send(streaming.TypeSearchState, s.search.State())
}

func (s *Session) sendSettingsState() {
	s.out.send(streaming.TypeSettingsState, streaming.SettingsPayload{
		ShownGroups: sets.Sorted(s.deps.Settings.ShownGroups()),
		HardMode:    s.deps.Settings.HardMode(),
	})
}

// SwitchPane shows a sidebar pane.
func (s *Session) SwitchPane(pane string) { s.sidebar.Open(pane) }

// CloseSidebar hides the sidebar.
func (s *Session) CloseSidebar() { s.sidebar.Close() }

// ActivePane returns the last pane shown and whether the sidebar is open.
func (s *Session) ActivePane() (string, bool) { return s.sidebar.active, s.sidebar.opened }

// Viewport returns the current map viewport.
func (s *Session) Viewport() core.Viewport { return s.surface.Viewport() }

// LayerCount returns the number of layers attached to the client map.
func (s *Session) LayerCount() int { return s.surface.LayerCount() }

// Dispatch queues a client message for the loop.
func (s *Session) Dispatch(e dispatcher.Event) error { return s.disp.Dispatch(e) }

// Do runs fn on the loop and waits for it.
func (s *Session) Do(ctx context.Context, fn func()) error { return s.disp.Do(ctx, fn) }

// Handle runs the handler of e on the calling goroutine. Callers must own
// the session state, either by being on the loop or by not running it.
func (s *Session) Handle(e dispatcher.Event) error {
	h, ok := s.handlers[e.Command]
	if !ok {
		return fmt.Errorf("unknown command: %s", e.Command)
	}
	return h(e)
}

// Run processes client messages until ctx is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) error {
	s.running.Store(true)
	defer close(s.stopped)
	return s.disp.Run(ctx)
}

// Close stops the loop, saves the settings and detaches everything from the
// client map. It must not be called from the loop.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.disp.Close()
	if s.running.Load() {
		<-s.stopped
	}

	if s.mounted {
		ctx, cancel := context.WithTimeout(context.Background(), closeSaveTimeout)
		defer cancel()
		if err := s.deps.Settings.Save(ctx); err != nil {
			s.logger.Warn("failed to save settings on close", "error", err)
		}
	}

	s.details.Close()
	s.search.Destroy()
	s.overlays.Destroy()
	s.drawing.Destroy()
	s.markers.Destroy()
	s.surface.Destroy()
	s.logger.Info("session closed")
}
