package streaming

import (
	"encoding/json"

	"github.com/objmap/mapcore/pkg/core"
)

// Client to server message types.
//
// TypeRouteChanged reports a route change on the client, whether from history
// navigation or the echo of a route:replace. Echoes of routes the session
// wrote are ignored, even when they arrive late.
const (
	TypeMapZoom             = "map:zoom"
	TypeMapZoomEnd          = "map:zoomend"
	TypeMapMoveEnd          = "map:moveend"
	TypeMapClick            = "map:click"
	TypeMapContextAction    = "map:context-action"
	TypeShowAllObjsForUnit  = "map:show-all-objs-for-map-unit"
	TypeMarkerSelected      = "marker:selected"
	TypeRouteChanged        = "route:changed"
	TypeSearchInput         = "search:input"
	TypeSearchAdd           = "search:add"
	TypeSearchExclude       = "search:exclude"
	TypeSearchRemoveGroup   = "search:remove-group"
	TypeSearchViewGroup     = "search:view-group"
	TypeSearchToggleGroup   = "search:toggle-group"
	TypeSearchRemoveExclude = "search:remove-exclude"
	TypeSearchJump          = "search:jump"
	TypeSearchPreset        = "search:preset"
	TypeDetailsClose        = "details:close"
	TypeOverlayBarrier      = "overlay:barrier"
	TypeOverlayHideBarrier  = "overlay:hide-barrier"
	TypeOverlayGoto         = "overlay:goto"
	TypeOverlayHideGoto     = "overlay:hide-goto"
	TypeOverlayOpenObj      = "overlay:open-obj"
	TypeDrawCreated         = "draw:created"
	TypeDrawToggle          = "draw:toggle"
	TypeSettingsUpdate      = "settings:update"
	TypeSettingsSave        = "settings:save"
	TypeSidebarSwitch       = "sidebar:switch"
	TypeSidebarContent      = "sidebar:content"
)

// Server to client message types.
const (
	TypeLayerAdd      = "layer:add"
	TypeLayerRemove   = "layer:remove"
	TypeLayerStyle    = "layer:style"
	TypeViewSet       = "view:set"
	TypeViewPan       = "view:pan"
	TypeSidebarOpen   = "sidebar:open"
	TypeSidebarClose  = "sidebar:close"
	TypeRouteReplace  = "route:replace"
	TypeDrawControl   = "draw:control"
	TypeSearchState   = "search:state"
	TypeSessionError  = "session:error"
	TypeSessionReady  = "session:ready"
	TypeSettingsState = "settings:state"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// BoundsPayload is a renderer-space rectangle.
type BoundsPayload struct {
	SouthWest core.LatLng `json:"southWest"`
	NorthEast core.LatLng `json:"northEast"`
}

// ViewPayload carries the client viewport after a pan or zoom.
type ViewPayload struct {
	Center core.LatLng    `json:"center"`
	Zoom   int            `json:"zoom"`
	Bounds *BoundsPayload `json:"bounds,omitempty"`
}

// LatLngPayload carries a single renderer-space point.
type LatLngPayload struct {
	LatLng core.LatLng `json:"latlng"`
}

// IDPayload identifies a layer.
type IDPayload struct {
	ID string `json:"id"`
}

// IndexPayload addresses an entry of a client-side list.
type IndexPayload struct {
	Index int `json:"index"`
}

// ActionPayload names a context menu action.
type ActionPayload struct {
	Action string `json:"action"`
}

// QueryPayload carries search input. An empty Query on search:add or
// search:exclude means the current live query.
type QueryPayload struct {
	Query string `json:"query"`
	Label string `json:"label,omitempty"`
}

// GotoPayload carries coordinates typed into the goto dialog, "x,z" or "x,y,z".
type GotoPayload struct {
	Coords string `json:"coords"`
}

// ObjIDPayload identifies a placed object.
type ObjIDPayload struct {
	ObjID int64 `json:"objid"`
}

// PanePayload names a sidebar pane.
type PanePayload struct {
	Pane string `json:"pane"`
}

// DrawCreatedPayload carries a GeoJSON geometry drawn by the user.
type DrawCreatedPayload struct {
	Geometry json.RawMessage `json:"geometry"`
}

// SettingsPayload is the client-editable part of the settings.
type SettingsPayload struct {
	ShownGroups []string `json:"shownGroups"`
	HardMode    bool     `json:"hardMode"`
}

// ViewSetPayload moves the client map.
type ViewSetPayload struct {
	Center core.LatLng `json:"center"`
	Zoom   int         `json:"zoom,omitempty"`
}

// RoutePayload describes a route replacement. Params is nil for the bare
// map route.
type RoutePayload struct {
	Name   string            `json:"name"`
	Params *core.RouteParams `json:"params,omitempty"`
}

// DrawControlPayload toggles the drawing toolbar.
type DrawControlPayload struct {
	Enabled bool `json:"enabled"`
}

// ErrorPayload reports a rejected client message.
type ErrorPayload struct {
	For     string `json:"for"`
	Message string `json:"message"`
}

// ReadyPayload is sent once the session is mounted.
type ReadyPayload struct {
	SessionID string   `json:"sessionId"`
	Types     []string `json:"types"`
}

// SearchGroupState summarizes a persisted search group.
type SearchGroupState struct {
	Query   string `json:"query"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Count   int    `json:"count"`
	Color   string `json:"color"`
}

// ExcludeSetState summarizes an exclusion set.
type ExcludeSetState struct {
	Query string `json:"query"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// PresetState is a search preset offered to the user.
type PresetState struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// SearchStatePayload is the full search panel state.
type SearchStatePayload struct {
	Query            string               `json:"query"`
	Searching        bool                 `json:"searching"`
	LastSearchFailed bool                 `json:"lastSearchFailed"`
	LastError        string               `json:"lastError,omitempty"`
	Results          []core.ObjectMinData `json:"results"`
	Groups           []SearchGroupState   `json:"groups"`
	Excludes         []ExcludeSetState    `json:"excludes"`
	Presets          []PresetState        `json:"presets"`
}
