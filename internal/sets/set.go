package sets

import (
	"cmp"
	"encoding/json"
	"maps"
	"slices"
)

// Set is an unordered collection of unique keys.
type Set[K comparable] map[K]struct{}

func New[K comparable](keys ...K) Set[K] {
	s := make(Set[K], len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func (s Set[K]) Has(key K) bool {
	_, ok := s[key]
	return ok
}

func (s Set[K]) Add(key K) {
	s[key] = struct{}{}
}

func (s Set[K]) Remove(key K) {
	delete(s, key)
}

// Clone returns an independent copy.
func (s Set[K]) Clone() Set[K] {
	if s == nil {
		return New[K]()
	}
	return maps.Clone(s)
}

// Equal reports whether both sets hold the same keys.
func (s Set[K]) Equal(other Set[K]) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Sorted returns the keys of s in ascending order.
func Sorted[K cmp.Ordered](s Set[K]) []K {
	return slices.Sorted(maps.Keys(s))
}

// Serializes this set's keys to a JSON array.
func (s Set[K]) MarshalJSON() ([]byte, error) {
	keys := make([]K, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return json.Marshal(keys)
}

// Deserializes a JSON array, rebuilding this set.
func (s *Set[K]) UnmarshalJSON(data []byte) error {
	var keys []K
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = New(keys...)
	return nil
}
