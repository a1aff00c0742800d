package session

import (
	"log/slog"

	"github.com/objmap/mapcore/internal/mapview"
	"github.com/objmap/mapcore/internal/route"
	"github.com/objmap/mapcore/pkg/core"
	"github.com/objmap/mapcore/pkg/streaming"
)

// Client is the browser end of a session.
type Client interface {
	Send(msgType string, payload any) error
}

type sender struct {
	client Client
	logger *slog.Logger
}

// send drops the message when the client is gone. The connection reports
// its own failure.
func (s sender) send(msgType string, payload any) {
	if err := s.client.Send(msgType, payload); err != nil {
		s.logger.Debug("dropping message", "type", msgType, "error", err)
	}
}

// renderer forwards map commands to the client.
type renderer struct{ sender }

func (r renderer) AddLayer(spec mapview.Spec) { r.send(streaming.TypeLayerAdd, spec) }

func (r renderer) RemoveLayer(id string) {
	r.send(streaming.TypeLayerRemove, streaming.IDPayload{ID: id})
}

func (r renderer) UpdateLayer(spec mapview.Spec) { r.send(streaming.TypeLayerStyle, spec) }

func (r renderer) SetView(center core.LatLng, zoom int) {
	r.send(streaming.TypeViewSet, streaming.ViewSetPayload{Center: center, Zoom: zoom})
}

func (r renderer) PanTo(center core.LatLng) {
	r.send(streaming.TypeViewPan, streaming.ViewSetPayload{Center: center})
}

// sidebar tracks the pane shown by the client sidebar.
type sidebar struct {
	sender
	active string
	opened bool
}

func (s *sidebar) Open(pane string) {
	s.active = pane
	s.opened = true
	s.send(streaming.TypeSidebarOpen, streaming.PanePayload{Pane: pane})
}

func (s *sidebar) Close() {
	s.opened = false
	s.send(streaming.TypeSidebarClose, nil)
}

// contentShown records a pane the user switched to on the client.
func (s *sidebar) contentShown(pane string) {
	s.active = pane
	s.opened = true
}

type router struct{ sender }

func (r router) Replace(rt route.Route) {
	r.send(streaming.TypeRouteReplace, streaming.RoutePayload{Name: rt.Name, Params: rt.Params})
}

type drawControl struct{ sender }

func (c drawControl) SetDrawControl(enabled bool) {
	c.send(streaming.TypeDrawControl, streaming.DrawControlPayload{Enabled: enabled})
}
