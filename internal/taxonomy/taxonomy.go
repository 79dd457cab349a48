// Package taxonomy models the category hierarchy files are sorted into.
//
// A Taxonomy is immutable once built. Category paths keep the prefix-closure
// invariant: whenever "Work/Invoices" is present, "Work" is present too, so
// every ancestor directory of a destination is itself a valid category.
package taxonomy

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FallbackCategory is the single category used when taxonomy synthesis fails
// or produces nothing usable.
const FallbackCategory = "Uncategorized"

// CategoryPath is an ordered list of sanitized segments from taxonomy root to
// leaf.
type CategoryPath []string

// ParsePath splits a "A/B/C" string into a sanitized path. Empty segments are
// dropped; an entirely empty result is an error.
func ParsePath(raw string) (CategoryPath, error) {
	var path CategoryPath
	for _, segment := range strings.Split(raw, "/") {
		clean := SanitizeSegment(segment)
		if clean == "" {
			continue
		}
		path = append(path, clean)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("category path: no usable segments in %q", raw)
	}
	return path, nil
}

// SanitizeSegment trims whitespace and replaces path separators so a segment
// is always safe to use as a single directory name.
func SanitizeSegment(segment string) string {
	clean := strings.TrimSpace(segment)
	clean = strings.ReplaceAll(clean, "/", "-")
	clean = strings.ReplaceAll(clean, string(filepath.Separator), "-")
	return strings.TrimSpace(clean)
}

// String renders the path in canonical "A/B/C" form.
func (p CategoryPath) String() string {
	return strings.Join(p, "/")
}

// Dir renders the path as a relative filesystem path.
func (p CategoryPath) Dir() string {
	return filepath.Join(p...)
}

// Depth returns the number of segments.
func (p CategoryPath) Depth() int { return len(p) }

// Truncate returns the path limited to at most depth segments.
func (p CategoryPath) Truncate(depth int) CategoryPath {
	if depth <= 0 || len(p) <= depth {
		return p
	}
	return p[:depth]
}

// Taxonomy is the closed set of category paths for one sorting run.
type Taxonomy struct {
	paths []CategoryPath
	index map[string]CategoryPath
}

// Builder accumulates paths and enforces the prefix-closure invariant.
type Builder struct {
	maxDepth int
	paths    []CategoryPath
	index    map[string]CategoryPath
}

// NewBuilder constructs a builder. Paths deeper than maxDepth are truncated
// on insert; maxDepth < 1 means unbounded.
func NewBuilder(maxDepth int) *Builder {
	return &Builder{
		maxDepth: maxDepth,
		index:    make(map[string]CategoryPath),
	}
}

// Add inserts a path together with all of its ancestors. Duplicate inserts
// are ignored, so insertion order decides path order.
func (b *Builder) Add(path CategoryPath) {
	if len(path) == 0 {
		return
	}
	if b.maxDepth >= 1 {
		path = path.Truncate(b.maxDepth)
	}
	for i := 1; i <= len(path); i++ {
		prefix := path[:i]
		key := prefix.String()
		if _, ok := b.index[key]; ok {
			continue
		}
		cp := make(CategoryPath, i)
		copy(cp, prefix)
		b.index[key] = cp
		b.paths = append(b.paths, cp)
	}
}

// AddString parses and inserts a raw "A/B" path. Unusable input is ignored.
func (b *Builder) AddString(raw string) {
	path, err := ParsePath(raw)
	if err != nil {
		return
	}
	b.Add(path)
}

// Build returns the finished taxonomy, or the fallback taxonomy when nothing
// was added.
func (b *Builder) Build() *Taxonomy {
	if len(b.paths) == 0 {
		b.AddString(FallbackCategory)
	}
	return &Taxonomy{paths: b.paths, index: b.index}
}

// Fallback returns the single-category fallback taxonomy.
func Fallback() *Taxonomy {
	builder := NewBuilder(1)
	builder.AddString(FallbackCategory)
	return builder.Build()
}

// Paths returns all category paths in insertion order. Callers must not
// mutate the returned slice.
func (t *Taxonomy) Paths() []CategoryPath {
	return t.paths
}

// Len returns the number of category paths.
func (t *Taxonomy) Len() int { return len(t.paths) }

// contains reports whether the canonical path string is part of the taxonomy.
func (t *Taxonomy) contains(canonical string) bool {
	_, ok := t.index[canonical]
	return ok
}

// Lookup returns the stored path for a canonical string.
func (t *Taxonomy) Lookup(canonical string) (CategoryPath, bool) {
	path, ok := t.index[canonical]
	return path, ok
}

// First returns the first category path, the deterministic fallback target
// for files that cannot be classified.
func (t *Taxonomy) First() CategoryPath {
	return t.paths[0]
}

// MaxDepth returns the deepest path length present.
func (t *Taxonomy) MaxDepth() int {
	max := 0
	for _, path := range t.paths {
		if len(path) > max {
			max = len(path)
		}
	}
	return max
}
