package engine

import "github.com/perfgen/perfgen/internal/ruleset"

// orderedSet is an append-only string sequence with first-insertion
// deduplication. Re-adding an existing token is a no-op; the token keeps
// the position of its first contributor.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(tokens ...string) {
	for _, tok := range tokens {
		if _, dup := s.seen[tok]; dup {
			continue
		}
		s.seen[tok] = struct{}{}
		s.items = append(s.items, tok)
	}
}

// values returns the accumulated tokens. Never nil, so callers can
// serialize the result directly.
func (s *orderedSet) values() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}

// Exclusions is the merged six-category result of a resolution.
type Exclusions struct {
	sets map[ruleset.Category]*orderedSet
}

func newExclusions() *Exclusions {
	sets := make(map[ruleset.Category]*orderedSet, len(ruleset.Categories))
	for _, c := range ruleset.Categories {
		sets[c] = newOrderedSet()
	}
	return &Exclusions{sets: sets}
}

// appendFragment appends every category list of a fragment.
func (e *Exclusions) appendFragment(f ruleset.Fragment) {
	for _, c := range ruleset.Categories {
		e.sets[c].add(f.List(c)...)
	}
}

// List returns the merged tokens for one category, in first-insertion
// order.
func (e *Exclusions) List(c ruleset.Category) []string {
	return e.sets[c].values()
}
