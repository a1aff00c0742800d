package session

import (
	"errors"
	"fmt"

	"github.com/objmap/mapcore/internal/dispatcher"
	"github.com/objmap/mapcore/internal/geo"
	"github.com/objmap/mapcore/internal/sets"
	"github.com/objmap/mapcore/pkg/core"
	"github.com/objmap/mapcore/pkg/streaming"
)

var (
	// ErrUnknownLayer is returned for selections of layers the map does not hold.
	ErrUnknownLayer = errors.New("unknown layer")
	// ErrUnknownAction is returned for context actions nothing is bound to.
	ErrUnknownAction = errors.New("unknown context action")
)

// register adds a handler that reports its failure back to the client.
func (s *Session) register(command string, h dispatcher.HandlerFunc, opts ...dispatcher.Option) {
	wrapped := func(e dispatcher.Event) error {
		err := h(e)
		if err != nil {
			s.out.send(streaming.TypeSessionError, streaming.ErrorPayload{For: e.Command, Message: err.Error()})
		}
		return err
	}
	s.handlers[command] = wrapped
	s.disp.Register(command, wrapped, opts...)
}

func (s *Session) registerHandlers() {
	for _, cmd := range []string{streaming.TypeMapZoom, streaming.TypeMapZoomEnd, streaming.TypeMapMoveEnd} {
		s.register(cmd, s.handleView)
	}
	s.register(streaming.TypeMapClick, func(dispatcher.Event) error {
		s.surface.HandleClick()
		return nil
	})
	s.register(streaming.TypeMapContextAction, s.handleContextAction)
	s.register(streaming.TypeShowAllObjsForUnit, s.handleShowAllObjs, dispatcher.Logged())
	s.register(streaming.TypeMarkerSelected, s.handleMarkerSelected, dispatcher.Logged())
	s.register(streaming.TypeRouteChanged, s.handleRouteChanged)

	s.register(streaming.TypeSearchInput, s.handleSearchInput)
	s.register(streaming.TypeSearchAdd, s.handleSearchAdd, dispatcher.Logged())
	s.register(streaming.TypeSearchExclude, s.handleSearchExclude, dispatcher.Logged())
	s.register(streaming.TypeSearchRemoveGroup, s.indexed(s.search.RemoveGroup))
	s.register(streaming.TypeSearchViewGroup, s.indexed(s.search.ViewGroup))
	s.register(streaming.TypeSearchToggleGroup, s.indexed(s.search.ToggleGroup))
	s.register(streaming.TypeSearchRemoveExclude, s.indexed(s.search.RemoveExclude))
	s.register(streaming.TypeSearchJump, s.indexed(s.search.JumpToResult))
	s.register(streaming.TypeSearchPreset, s.indexed(s.search.ApplyPreset))

	s.register(streaming.TypeDetailsClose, func(dispatcher.Event) error {
		s.details.Close()
		return nil
	})

	s.register(streaming.TypeOverlayBarrier, func(dispatcher.Event) error {
		s.overlays.ShowBarrier()
		return nil
	})
	s.register(streaming.TypeOverlayHideBarrier, func(dispatcher.Event) error {
		s.overlays.HideBarrier()
		return nil
	})
	s.register(streaming.TypeOverlayGoto, s.handleGoto)
	s.register(streaming.TypeOverlayHideGoto, func(dispatcher.Event) error {
		s.overlays.HideGotoPin()
		return nil
	})
	s.register(streaming.TypeOverlayOpenObj, s.handleOpenObj, dispatcher.Logged())

	s.register(streaming.TypeDrawCreated, s.handleDrawCreated, dispatcher.Logged())
	s.register(streaming.TypeDrawToggle, func(dispatcher.Event) error {
		s.drawing.ToggleControl()
		return nil
	})

	s.register(streaming.TypeSettingsUpdate, s.handleSettingsUpdate, dispatcher.Logged())
	s.register(streaming.TypeSettingsSave, func(dispatcher.Event) error {
		return s.deps.Settings.Save(s.ctx)
	}, dispatcher.Logged())

	s.register(streaming.TypeSidebarSwitch, func(e dispatcher.Event) error {
		var p streaming.PanePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		if p.Pane == "" {
			s.CloseSidebar()
			return nil
		}
		s.SwitchPane(p.Pane)
		return nil
	})
	s.register(streaming.TypeSidebarContent, func(e dispatcher.Event) error {
		var p streaming.PanePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		s.sidebar.contentShown(p.Pane)
		return nil
	})
}

// indexed adapts an operation on a list entry to a handler.
func (s *Session) indexed(fn func(idx int)) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) error {
		var p streaming.IndexPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		fn(p.Index)
		return nil
	}
}

func (s *Session) handleView(e dispatcher.Event) error {
	var p streaming.ViewPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	var bounds *geo.Bounds
	if p.Bounds != nil {
		b := geo.NewBounds(geo.ToXZ(p.Bounds.SouthWest), geo.ToXZ(p.Bounds.NorthEast))
		bounds = &b
	}
	s.surface.HandleView(p.Center, geo.ClampZoom(p.Zoom), bounds)
	return nil
}

func (s *Session) handleContextAction(e dispatcher.Event) error {
	var p streaming.ActionPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	if !s.surface.HandleContextAction(p.Action) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, p.Action)
	}
	return nil
}

func (s *Session) handleShowAllObjs(e dispatcher.Event) error {
	var p streaming.LatLngPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	s.surface.HandleShowAllObjs(p.LatLng)
	return nil
}

func (s *Session) handleMarkerSelected(e dispatcher.Event) error {
	var p streaming.IDPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	if !s.surface.HandleMarkerSelected(p.ID) {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, p.ID)
	}
	return nil
}

func (s *Session) handleRouteChanged(e dispatcher.Event) error {
	var p core.RouteParams
	if len(e.Payload) > 0 {
		if err := e.Decode(&p); err != nil {
			return err
		}
	}
	s.binder.OnRouteChange(p)
	return nil
}

func (s *Session) handleSearchInput(e dispatcher.Event) error {
	var p streaming.QueryPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	s.search.SetQuery(p.Query)
	return nil
}

func (s *Session) handleSearchAdd(e dispatcher.Event) error {
	var p streaming.QueryPayload
	if len(e.Payload) > 0 {
		if err := e.Decode(&p); err != nil {
			return err
		}
	}
	if p.Query == "" {
		s.search.AddCurrentQueryAsGroup(p.Label)
		return nil
	}
	s.search.AddGroup(p.Query, p.Label)
	return nil
}

func (s *Session) handleSearchExclude(e dispatcher.Event) error {
	var p streaming.QueryPayload
	if len(e.Payload) > 0 {
		if err := e.Decode(&p); err != nil {
			return err
		}
	}
	if p.Query == "" {
		s.search.ExcludeCurrentQuery()
		return nil
	}
	s.search.AddExclude(p.Query, p.Label)
	return nil
}

func (s *Session) handleGoto(e dispatcher.Event) error {
	var p streaming.GotoPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	xz, err := geo.ParseXZ(p.Coords)
	if err != nil {
		return fmt.Errorf("goto %q: %w", p.Coords, err)
	}
	s.overlays.GotoCoords(xz)
	return nil
}

// handleOpenObj fetches the object off the loop and shows it when it arrives.
func (s *Session) handleOpenObj(e dispatcher.Event) error {
	var p streaming.ObjIDPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	s.deps.Sched.Go(func() {
		obj, err := s.deps.Objects.GetObj(s.ctx, p.ObjID)
		s.deps.Sched.Post(func() {
			if s.ctx.Err() != nil {
				return
			}
			if err != nil {
				s.logger.Warn("failed to load object", "objid", p.ObjID, "error", err)
				s.out.send(streaming.TypeSessionError, streaming.ErrorPayload{
					For:     streaming.TypeOverlayOpenObj,
					Message: err.Error(),
				})
				return
			}
			s.overlays.OpenObject(obj)
		})
	})
	return nil
}

func (s *Session) handleDrawCreated(e dispatcher.Event) error {
	var p streaming.DrawCreatedPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	return s.drawing.Add(p.Geometry)
}

func (s *Session) handleSettingsUpdate(e dispatcher.Event) error {
	var p streaming.SettingsPayload
	if err := e.Decode(&p); err != nil {
		return err
	}
	s.deps.Settings.Update(sets.New(p.ShownGroups...), p.HardMode)
	return nil
}
