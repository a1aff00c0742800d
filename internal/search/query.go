package search

import (
	"regexp"
	"strconv"
)

var hexIDPrefix = regexp.MustCompile(`^0x[0-9A-Fa-f]{6}`)

// NormalizeQuery rewrites a query starting with "0x" and six hex digits as
// the decimal value of the leading hex run, which is how object hashes are
// indexed. Anything after the hex run is dropped. Other queries are returned
// unchanged.
func NormalizeQuery(query string) string {
	if !hexIDPrefix.MatchString(query) {
		return query
	}
	end := 2
	for end < len(query) && isHexDigit(query[end]) {
		end++
	}
	v, err := strconv.ParseUint(query[2:end], 16, 64)
	if err != nil {
		// more than 16 hex digits
		return query
	}
	return strconv.FormatUint(v, 10)
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// UpdateMode selects what a group update recomputes. The zero value only
// re-applies the current state to the map.
type UpdateMode uint8

const (
	// UpdateStyle recomputes the visual treatment of result markers.
	UpdateStyle UpdateMode = 1 << iota
	// UpdateVisibility recomputes which result markers are hidden by
	// exclusion sets.
	UpdateVisibility
)

// Has reports whether every flag of f is set in m.
func (m UpdateMode) Has(f UpdateMode) bool { return m&f == f }

func (m UpdateMode) String() string {
	switch m {
	case 0:
		return "refresh"
	case UpdateStyle:
		return "style"
	case UpdateVisibility:
		return "visibility"
	case UpdateStyle | UpdateVisibility:
		return "style|visibility"
	}
	return "UpdateMode(" + strconv.Itoa(int(m)) + ")"
}

// Preset is a canned search offered to the user.
type Preset struct {
	Label string
	Query string
}

// Presets are the canned searches, in display order.
var Presets = []Preset{
	{Label: "Treasure chests", Query: `actor:^"TBox_"`},
	{Label: "Korok seeds", Query: `actor:^"KorokCarryProgressKeeper" OR name:"Korok"`},
	{Label: "Hinoxes", Query: `actor:^"Enemy_Giant"`},
	{Label: "Taluses", Query: `actor:^"Enemy_Golem"`},
	{Label: "Moldugas", Query: `actor:^"Enemy_Sandworm"`},
	{Label: "Lynels", Query: `actor:^"Enemy_Lynel"`},
	{Label: "Guardians", Query: `actor:^"Enemy_Guardian"`},
	{Label: "Ore deposits", Query: `actor:^"Obj_Ore"`},
	{Label: "Cooking pots", Query: `actor:"FldObj_KitchenPot"`},
	{Label: "Goddess statues", Query: `actor:"Obj_GoddessStatue"`},
}
