package slug

import "strings"

// Set is a case-insensitive collection of slugs already in use within a namespace.
type Set map[string]struct{}

// NewSet builds a Set from the given slugs. Empty values are skipped.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v in lower-cased form.
func (s Set) Add(v string) {
	if v == "" {
		return
	}
	s[strings.ToLower(v)] = struct{}{}
}

// Remove deletes v, ignoring case.
func (s Set) Remove(v string) {
	delete(s, strings.ToLower(v))
}

// Has reports whether v is in the set, ignoring case.
func (s Set) Has(v string) bool {
	if s == nil || v == "" {
		return false
	}
	_, ok := s[strings.ToLower(v)]
	return ok
}

// Len returns the number of slugs in the set.
func (s Set) Len() int { return len(s) }
