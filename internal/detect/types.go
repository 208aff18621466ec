// Package detect infers technology tags from a directory tree.
//
// Detection looks at manifest file names, file extensions, editor
// directories, and the host operating system. All lookup tables live in
// tables.go.
package detect

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxDepth is the traversal ceiling used when none is configured.
const DefaultMaxDepth = 10

// TagSet is an unordered set of lower-case technology tags.
type TagSet map[string]struct{}

// NewTagSet returns a set holding the given tags, lower-cased.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	s.Add(tags...)
	return s
}

// Add inserts tags, lower-casing and trimming each one. Empty tags are dropped.
func (s TagSet) Add(tags ...string) {
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			s[t] = struct{}{}
		}
	}
}

// ValidTag reports whether tag, once trimmed, can name a template: it must
// be non-empty and free of whitespace, commas, path separators and "..".
func ValidTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.Contains(tag, "..") {
		return false
	}
	return !strings.ContainsFunc(tag, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '/' || r == '\\'
	})
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := s[strings.ToLower(tag)]
	return ok
}

// Merge adds every tag from other.
func (s TagSet) Merge(other TagSet) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Sorted returns the tags in lexical order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Options configures a detection run.
type Options struct {
	// MaxDepth is the requested traversal depth. Direct children of the
	// root are at depth 1. Zero or negative means use the ceiling.
	MaxDepth int

	// Ceiling caps MaxDepth. Zero means DefaultMaxDepth.
	Ceiling int

	// DetectOS adds a tag for the host operating system.
	DetectOS bool

	// DetectIDE recognizes editor directories such as .vscode.
	DetectIDE bool
}

// effectiveDepth returns min(MaxDepth, Ceiling) with defaults applied.
func (o Options) effectiveDepth() int {
	ceiling := o.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultMaxDepth
	}
	if o.MaxDepth <= 0 || o.MaxDepth > ceiling {
		return ceiling
	}
	return o.MaxDepth
}
