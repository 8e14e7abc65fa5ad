package tags

import (
	"regexp"
	"sort"
)

// CriticalPath is the reserved tag applied by the critical-path tagging helper.
const CriticalPath = "CriticalPath"

var tagPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// Valid reports whether tag matches the tag grammar.
func Valid(tag string) bool {
	return tagPattern.MatchString(tag)
}

// Normalize deduplicates and sorts tags. It does not validate them.
func Normalize(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Index is the union of tags used by tasks and resources. It is a cache over
// the primary tables: it counts references per tag so removals can be applied
// incrementally, and Rebuild recomputes it from scratch.
type Index struct {
	refs map[string]int
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{refs: make(map[string]int)}
}

// Add registers one reference to each tag.
func (idx *Index) Add(tags ...string) {
	for _, t := range tags {
		idx.refs[t]++
	}
}

// Remove drops one reference to each tag; a tag with no references left
// disappears from the index.
func (idx *Index) Remove(tags ...string) {
	for _, t := range tags {
		n, ok := idx.refs[t]
		if !ok {
			continue
		}
		if n <= 1 {
			delete(idx.refs, t)
		} else {
			idx.refs[t] = n - 1
		}
	}
}

// Rebuild replaces the index contents with the given tag sets.
func (idx *Index) Rebuild(sets ...[]string) {
	idx.refs = make(map[string]int)
	for _, s := range sets {
		idx.Add(s...)
	}
}

// Has reports whether tag is used anywhere.
func (idx *Index) Has(tag string) bool {
	_, ok := idx.refs[tag]
	return ok
}

// All returns every indexed tag in sorted order.
func (idx *Index) All() []string {
	out := make([]string, 0, len(idx.refs))
	for t := range idx.refs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct tags.
func (idx *Index) Len() int {
	return len(idx.refs)
}

// Matches reports whether have satisfies the filter. An empty filter matches
// everything; a non-empty filter never matches an empty tag set. With
// matchAll every filter tag must be present, otherwise any one suffices.
func Matches(have, filter []string, matchAll bool) bool {
	if len(filter) == 0 {
		return true
	}
	if len(have) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, f := range filter {
		_, ok := set[f]
		if matchAll && !ok {
			return false
		}
		if !matchAll && ok {
			return true
		}
	}
	return matchAll
}
