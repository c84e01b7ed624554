// Package fieldpath parses dotted document paths such as "a.b.c".
package fieldpath

import "strings"

const separator = "."

// FieldPath is a parsed dotted path. Every '.' separates two segments, so
// empty segments are kept: "a..b" has the segments "a", "" and "b". The zero
// FieldPath is the empty path, which has a single empty segment.
//
// FieldPaths are comparable and may be used as map keys.
type FieldPath struct {
	path string
}

// Parse returns the FieldPath for the dotted path s. Parse never fails.
func Parse(s string) FieldPath {
	return FieldPath{path: s}
}

// String returns the dotted form of p.
func (p FieldPath) String() string { return p.path }

// Segments returns the segments of p. The result is never empty.
func (p FieldPath) Segments() []string {
	return strings.Split(p.path, separator)
}

// Child returns p extended by name. Dots in name introduce further segments.
func (p FieldPath) Child(name string) FieldPath {
	return FieldPath{path: p.path + separator + name}
}

// IsSegment reports whether the document key name can be addressed by a
// path. Keys containing '.' cannot.
func IsSegment(name string) bool {
	return !strings.Contains(name, separator)
}
