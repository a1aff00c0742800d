// Package drawing keeps the shapes a user drew on the map and persists them
// as a GeoJSON feature collection.
package drawing

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/objmap/mapcore/internal/mapview"
)

const layerID = "draw-layer"

// Surface is the part of the map the draw layer lives on.
type Surface interface {
	AddLayer(l mapview.Layer)
	RemoveLayer(l mapview.Layer)
	UpdateLayer(l mapview.Layer)
}

// Sidebar closes the sidebar before the drawing toolbar opens.
type Sidebar interface {
	Close()
}

// Control shows or hides the drawing toolbar on the client.
type Control interface {
	SetDrawControl(enabled bool)
}

// Layer is the feature collection drawn by the user.
type Layer struct {
	features geom.GeoJSONFeatureCollection
}

func (l *Layer) LayerID() string { return layerID }

func (l *Layer) LayerSpec() mapview.Spec {
	spec := mapview.Spec{ID: layerID, Kind: mapview.KindGeoJSON}
	if raw, err := l.marshal(); err == nil {
		spec.GeoJSON = raw
	}
	return spec
}

// Len returns the number of features.
func (l *Layer) Len() int { return len(l.features) }

func (l *Layer) marshal() ([]byte, error) {
	fc := l.features
	if fc == nil {
		fc = geom.GeoJSONFeatureCollection{}
	}
	return json.Marshal(fc)
}

// Controller owns the draw layer and the toolbar state of one map.
type Controller struct {
	surface Surface
	sidebar Sidebar
	control Control
	logger  *slog.Logger

	layer          *Layer
	controlEnabled bool
}

// NewController creates a controller with an empty layer attached to s.
func NewController(s Surface, sb Sidebar, ctl Control, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{surface: s, sidebar: sb, control: ctl, logger: logger, layer: &Layer{}}
	s.AddLayer(c.layer)
	return c
}

// Layer returns the draw layer.
func (c *Controller) Layer() *Layer { return c.layer }

// ControlEnabled reports whether the toolbar is shown.
func (c *Controller) ControlEnabled() bool { return c.controlEnabled }

// Load replaces the layer with a stored feature collection. An empty string
// is an empty layer. Invalid data is logged and leaves the layer untouched.
func (c *Controller) Load(stored string) error {
	if stored == "" {
		return nil
	}
	var fc geom.GeoJSONFeatureCollection
	if err := json.Unmarshal([]byte(stored), &fc); err != nil {
		c.logger.Warn("ignoring stored draw layer", "error", err)
		return fmt.Errorf("failed to parse draw layer: %w", err)
	}
	c.layer.features = fc
	c.surface.UpdateLayer(c.layer)
	return nil
}

// Add appends a drawn geometry. The payload may be a bare geometry or a
// feature.
func (c *Controller) Add(raw json.RawMessage) error {
	var f geom.GeoJSONFeature
	if err := json.Unmarshal(raw, &f); err != nil || f.Geometry.IsEmpty() {
		g, gerr := geom.UnmarshalGeoJSON(raw)
		if gerr != nil {
			return fmt.Errorf("failed to parse drawn shape: %w", gerr)
		}
		f = geom.GeoJSONFeature{Geometry: g}
	}
	if f.Properties == nil {
		f.Properties = map[string]interface{}{}
	}
	c.layer.features = append(c.layer.features, f)
	c.surface.UpdateLayer(c.layer)
	return nil
}

// GeoJSON serializes the layer for storage.
func (c *Controller) GeoJSON() (string, error) {
	raw, err := c.layer.marshal()
	if err != nil {
		return "", fmt.Errorf("failed to serialize draw layer: %w", err)
	}
	return string(raw), nil
}

// ToggleControl closes the sidebar and shows or hides the toolbar.
func (c *Controller) ToggleControl() {
	c.sidebar.Close()
	c.controlEnabled = !c.controlEnabled
	c.control.SetDrawControl(c.controlEnabled)
}

// Destroy detaches the layer.
func (c *Controller) Destroy() {
	c.surface.RemoveLayer(c.layer)
}
