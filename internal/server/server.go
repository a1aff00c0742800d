// Package server exposes map sessions over WebSocket. Every connection gets
// its own session, fed with the client's envelopes and answering through the
// same socket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"github.com/objmap/mapcore/internal/dispatcher"
	"github.com/objmap/mapcore/internal/logging"
	"github.com/objmap/mapcore/internal/search"
	"github.com/objmap/mapcore/internal/session"
	"github.com/objmap/mapcore/internal/settings"
	"github.com/objmap/mapcore/pkg/core"
	"github.com/objmap/mapcore/pkg/streaming"
)

// ClientParam is the query parameter carrying the persistent client id.
const ClientParam = "client"

// Config holds server configuration.
type Config struct {
	Addr      string
	QueueSize int
	Search    search.Config
}

// Dependencies holds the backends shared by every session.
type Dependencies struct {
	Objects  session.ObjectService
	MapInfo  session.MapInfoSource
	Settings settings.Repository // optional, settings are kept in memory without it
	Recorder search.Recorder     // optional
	Logger   *slog.Logger
}

// Server accepts WebSocket clients and runs one session per connection.
type Server struct {
	cfg      Config
	deps     Dependencies
	logger   *slog.Logger
	router   chi.Router
	upgrader ws.Upgrader

	mu         sync.Mutex
	conns      map[string]*connection
	wg         sync.WaitGroup
	httpServer *http.Server
}

// New creates a server. Log records carry the number of live sessions.
func New(cfg Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		cfg:   cfg,
		deps:  deps,
		conns: make(map[string]*connection),
	}
	s.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	s.logger = slog.New(logging.NewContextHandler(deps.Logger.Handler(), func() []slog.Attr {
		return []slog.Attr{slog.Int("sessions", s.SessionCount())}
	}))
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// SessionCount returns the number of connected clients.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// clientID reads the persistent client id, or makes up a new one.
func clientID(r *http.Request) uuid.UUID {
	if id, err := uuid.Parse(r.URL.Query().Get(ClientParam)); err == nil {
		return id
	}
	return uuid.New()
}

// initialRoute reads the map route the page was opened at.
func initialRoute(r *http.Request) core.RouteParams {
	q := r.URL.Query()
	return core.RouteParams{X: q.Get("x"), Z: q.Get("z"), Zoom: q.Get("zoom")}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	id := uuid.NewString()
	logger := s.logger.With("session", id)
	c := newConnection(conn, logger)
	defer c.close()
	go c.writeLoop()

	// sessions outlive the request context
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	client := clientID(r)
	ctx = logging.ContextWith(ctx,
		slog.String("client", client.String()),
		slog.String("request", middleware.GetReqID(r.Context())),
	)

	store := settings.NewStore(client, s.deps.Settings, logger)
	if err := store.Load(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to load settings, using defaults", "error", err)
	}

	sess, err := session.New(ctx, id, session.Dependencies{
		Client:   c,
		Objects:  s.deps.Objects,
		MapInfo:  s.deps.MapInfo,
		Settings: store,
		Recorder: s.deps.Recorder,
		Logger:   s.logger,
	}, session.Config{QueueSize: s.cfg.QueueSize, Search: s.cfg.Search})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create session", "error", err)
		_ = c.Send(streaming.TypeSessionError, streaming.ErrorPayload{Message: err.Error()})
		return
	}

	s.track(id, c)
	defer s.untrack(id)
	logger.InfoContext(ctx, "Client connected", "remote", r.RemoteAddr)

	route := initialRoute(r)
	go func() {
		if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Session loop stopped", "error", err)
		}
	}()
	if err := sess.Do(ctx, func() { sess.Mount(route) }); err != nil {
		logger.ErrorContext(ctx, "Failed to mount session", "error", err)
		sess.Close()
		return
	}

	err = c.readLoop(func(env streaming.Envelope) {
		e := dispatcher.Event{Command: env.Type, Payload: env.Payload, Timestamp: time.Now()}
		if err := sess.Dispatch(e); err != nil {
			logger.Debug("Rejected client message", "type", env.Type, "error", err)
			_ = c.Send(streaming.TypeSessionError, streaming.ErrorPayload{For: env.Type, Message: err.Error()})
		}
	})
	if err != nil {
		logger.WarnContext(ctx, "Client connection lost", "error", err)
	}

	sess.Close()
	logger.InfoContext(ctx, "Client disconnected")
}

func (s *Server) track(id string, c *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = c
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Listening", "addr", s.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on %s: %w", s.cfg.Addr, err)
	}
	return nil
}

// Shutdown stops accepting clients, disconnects every client and waits for
// their sessions to close.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	conns := make([]*connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	// hijacked connections are not closed by http.Server
	for _, c := range conns {
		_ = c.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
}
