package utils

import "sort"

// StringSet tracks distinct values.
type StringSet struct {
	seen map[string]struct{}
}

// NewStringSet creates a set holding values.
func NewStringSet(values ...string) *StringSet {
	s := &StringSet{seen: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add returns true if v was newly added, false if already present.
func (s *StringSet) Add(v string) bool {
	if _, exists := s.seen[v]; exists {
		return false
	}
	s.seen[v] = struct{}{}
	return true
}

// Contains returns true if v is in the set.
func (s *StringSet) Contains(v string) bool {
	_, exists := s.seen[v]
	return exists
}

// Size returns the number of distinct values.
func (s *StringSet) Size() int {
	return len(s.seen)
}

// IsSubsetOf reports whether every value of s is also in other.
func (s *StringSet) IsSubsetOf(other *StringSet) bool {
	for v := range s.seen {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Sorted returns the values in ascending order.
func (s *StringSet) Sorted() []string {
	out := make([]string, 0, len(s.seen))
	for v := range s.seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
