package resource

import (
	"sort"
	"strings"
)

// Set is a mutable collection of unique handles. It backs the pending-set
// bookkeeping in wait operations and the before/after membership diffs in
// scale operations. A Set is not safe for concurrent use.
type Set map[Handle]struct{}

// NewSet returns a Set containing the given handles
func NewSet(handles ...Handle) Set {
	s := make(Set, len(handles))
	for _, h := range handles {
		s[h] = struct{}{}
	}
	return s
}

// Add inserts a handle into the set
func (s Set) Add(h Handle) {
	s[h] = struct{}{}
}

// Remove deletes a handle from the set
func (s Set) Remove(h Handle) {
	delete(s, h)
}

// Has reports whether the handle is in the set
func (s Set) Has(h Handle) bool {
	_, ok := s[h]
	return ok
}

// Len returns the number of handles in the set
func (s Set) Len() int {
	return len(s)
}

// Diff returns the handles present in s but not in other. Scale-up uses this
// to identify newly provisioned members, since backends do not reliably
// return new-instance identifiers synchronously.
func (s Set) Diff(other Set) Set {
	out := make(Set)
	for h := range s {
		if !other.Has(h) {
			out.Add(h)
		}
	}
	return out
}

// Handles returns the members sorted by name for stable iteration
func (s Set) Handles() []Handle {
	out := make([]Handle, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the member names sorted alphabetically
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for h := range s {
		names = append(names, h.Name)
	}
	sort.Strings(names)
	return names
}

func (s Set) String() string {
	return strings.Join(s.Names(), ", ")
}
