package mapview

import "github.com/objmap/mapcore/pkg/core"

// Renderer receives drawing commands for the client-side map.
type Renderer interface {
	AddLayer(spec Spec)
	RemoveLayer(id string)
	UpdateLayer(spec Spec)
	SetView(center core.LatLng, zoom int)
	PanTo(center core.LatLng)
}

// NopRenderer discards every command. Used for headless sessions.
type NopRenderer struct{}

func (NopRenderer) AddLayer(Spec)            {}
func (NopRenderer) RemoveLayer(string)       {}
func (NopRenderer) UpdateLayer(Spec)         {}
func (NopRenderer) SetView(core.LatLng, int) {}
func (NopRenderer) PanTo(core.LatLng)        {}
