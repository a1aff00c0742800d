// pkg/core/object.go
package core

import "encoding/json"

// ObjectMinData is the summary of a placed game object returned by searches.
type ObjectMinData struct {
	ObjID       int64      `json:"objid"`
	HashID      string     `json:"hash_id"`
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name,omitempty"`
	Pos         [3]float64 `json:"pos"`
	MapType     string     `json:"map_type,omitempty"`
	MapName     string     `json:"map_name,omitempty"`
	HardMode    bool       `json:"hard_mode,omitempty"`
	Drop        []string   `json:"drop,omitempty"`
	Equip       []string   `json:"equip,omitempty"`
}

// Position returns the object position.
func (o ObjectMinData) Position() Point {
	return Point{X: o.Pos[0], Y: o.Pos[1], Z: o.Pos[2]}
}

// ObjectData is the full record of a placed object.
type ObjectData struct {
	ObjectMinData
	MapStatic bool           `json:"map_static,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// RawMarker is one static marker entry from the map summary, keyed by
// marker type in MapInfo.Markers.
type RawMarker struct {
	Name   string          `json:"name,omitempty"`
	Pos    [3]float64      `json:"pos"`
	Icon   string          `json:"icon,omitempty"`
	Fields json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw entry next to the decoded common fields.
func (m *RawMarker) UnmarshalJSON(data []byte) error {
	type alias RawMarker
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = RawMarker(a)
	m.Fields = append(json.RawMessage(nil), data...)
	return nil
}

// Position returns the marker position.
func (m RawMarker) Position() Point {
	return Point{X: m.Pos[0], Y: m.Pos[1], Z: m.Pos[2]}
}

// MapInfo is the cached map summary for a world.
type MapInfo struct {
	Markers map[string][]RawMarker `json:"markers"`
}
