package compiler

import (
	"os"
	"strings"
)

// PathSet is an ordered set of filesystem paths. Insertion order is kept and
// later duplicates are dropped.
type PathSet struct {
	elements []string
	seen     map[string]struct{}
}

// NewPathSet creates a set holding paths
func NewPathSet(paths ...string) *PathSet {
	s := &PathSet{seen: make(map[string]struct{})}
	s.Add(paths...)
	return s
}

// Add appends paths not already present. Blank paths are ignored.
func (s *PathSet) Add(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}

		if _, ok := s.seen[p]; ok {
			continue
		}

		s.seen[p] = struct{}{}
		s.elements = append(s.elements, p)
	}
}

// Len returns the number of elements
func (s *PathSet) Len() int {
	return len(s.elements)
}

// Elements returns a copy of the elements in insertion order
func (s *PathSet) Elements() []string {
	return append([]string(nil), s.elements...)
}

// Join joins the elements with the platform path list separator
func (s *PathSet) Join() string {
	return JoinPath(s.elements)
}

// JoinPath joins elements with the platform path list separator as is,
// without removing duplicates
func JoinPath(elements []string) string {
	return strings.Join(elements, string(os.PathListSeparator))
}
