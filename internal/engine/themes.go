package engine

// ThemeInput carries the redundant legacy theme fields accepted by the
// API. Historically clients sent any mix of a single theme, a parent/child
// pair, or a full themes array; Sequence reconciles them.
type ThemeInput struct {
	Theme       string
	ThemeParent string
	ThemeChild  string
	Themes      []string
}

// Sequence returns the raw theme sequence to resolve. If Themes is
// non-empty it wins as the full set. Otherwise the sequence is assembled
// from ThemeParent, then ThemeChild (when distinct from the parent), then
// Theme, skipping empties. Duplicates are kept here; the engine
// deduplicates by normalized key.
func (t ThemeInput) Sequence() []string {
	if len(t.Themes) > 0 {
		return t.Themes
	}
	var seq []string
	if t.ThemeParent != "" {
		seq = append(seq, t.ThemeParent)
	}
	if t.ThemeChild != "" && t.ThemeChild != t.ThemeParent {
		seq = append(seq, t.ThemeChild)
	}
	if t.Theme != "" {
		seq = append(seq, t.Theme)
	}
	return seq
}
