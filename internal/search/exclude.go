package search

import (
	"github.com/objmap/mapcore/internal/sets"
)

// ExcludeSet is a query whose matching objects are hidden from every search
// group and from the live results.
type ExcludeSet struct {
	Query string
	Label string

	ids sets.Set[int64]
}

func newExcludeSet(query, label string, ids []int64) *ExcludeSet {
	if label == "" {
		label = query
	}
	return &ExcludeSet{Query: query, Label: label, ids: sets.New(ids...)}
}

// Has reports whether the object is excluded.
func (s *ExcludeSet) Has(objID int64) bool { return s.ids.Has(objID) }

// Len returns the number of excluded objects.
func (s *ExcludeSet) Len() int { return len(s.ids) }
