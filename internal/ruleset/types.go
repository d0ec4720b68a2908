package ruleset

// Category identifies one of the six exclusion lists carried through the
// merge and written into the assembled configuration.
type Category string

const (
	CategoryJS               Category = "js_exclusions"
	CategoryDelayJS          Category = "delay_js_exclusions"
	CategoryRUCSSStylesheets Category = "rucss_excluded_stylesheets"
	CategoryRUCSSSelectors   Category = "rucss_excluded_selectors"
	CategoryMinifyCSS        Category = "minify_css_exclusions"
	CategoryMinifyJS         Category = "minify_js_exclusions"
)

// Categories lists all exclusion categories in output order. This order is
// fixed: it determines field order in the assembled configuration and the
// iteration order of every per-category merge step.
var Categories = []Category{
	CategoryJS,
	CategoryDelayJS,
	CategoryRUCSSStylesheets,
	CategoryRUCSSSelectors,
	CategoryMinifyCSS,
	CategoryMinifyJS,
}

// Fragment is one named source's contribution to the merged exclusion set.
// A source is a plugin key, a theme key, a provider tag, a compound-rule
// name, or the universal baseline. Empty lists are omitted on disk.
type Fragment struct {
	JS               []string `json:"js_exclusions,omitempty"`
	DelayJS          []string `json:"delay_js_exclusions,omitempty"`
	RUCSSStylesheets []string `json:"rucss_excluded_stylesheets,omitempty"`
	RUCSSSelectors   []string `json:"rucss_excluded_selectors,omitempty"`
	MinifyCSS        []string `json:"minify_css_exclusions,omitempty"`
	MinifyJS         []string `json:"minify_js_exclusions,omitempty"`
}

// List returns the fragment's tokens for one category.
func (f Fragment) List(c Category) []string {
	switch c {
	case CategoryJS:
		return f.JS
	case CategoryDelayJS:
		return f.DelayJS
	case CategoryRUCSSStylesheets:
		return f.RUCSSStylesheets
	case CategoryRUCSSSelectors:
		return f.RUCSSSelectors
	case CategoryMinifyCSS:
		return f.MinifyCSS
	case CategoryMinifyJS:
		return f.MinifyJS
	}
	return nil
}

// IsEmpty reports whether the fragment contributes nothing in any category.
func (f Fragment) IsEmpty() bool {
	for _, c := range Categories {
		if len(f.List(c)) > 0 {
			return false
		}
	}
	return true
}

// CompoundRule is a fragment gated by an activation predicate: ALL required
// plugins must be present (by normalized key) and, if RequiredTheme is set,
// that theme must be in the processed theme set. A rule with no required
// plugins and no required theme is vacuously inapplicable and never fires.
type CompoundRule struct {
	Name            string
	Fragment        Fragment
	RequiredTheme   ThemeKey
	RequiredPlugins []PluginKey
}

// Dictionary holds the rule namespaces for a single optimization concern.
// All map keys are normalized at load time; lookups must go through
// NormalizePlugin / NormalizeTheme.
type Dictionary struct {
	Universal Fragment
	Plugins   map[PluginKey]Fragment
	Themes    map[ThemeKey]Fragment
	Providers map[string]Fragment
	// Compound rules sorted by name at load so evaluation order is
	// deterministic for a fixed store.
	Compound []CompoundRule
}

// Concern names one of the independently loaded rule dictionaries.
type Concern string

const (
	ConcernRUCSS   Concern = "rucss"
	ConcernDelayJS Concern = "delay_js"
	ConcernJS      Concern = "js"
)

// Concerns lists the dictionaries in merge order. Each resolution step
// consults every concern in this order before moving to the next source.
var Concerns = []Concern{ConcernRUCSS, ConcernDelayJS, ConcernJS}

// Store is the full set of loaded rule dictionaries. It is immutable after
// load; see Snapshot for the publication model.
type Store struct {
	dicts map[Concern]Dictionary
}

// NewStore builds a store from per-concern dictionaries. Missing concerns
// behave as empty dictionaries. Intended for tests; production stores come
// from LoadDir.
func NewStore(dicts map[Concern]Dictionary) *Store {
	if dicts == nil {
		dicts = map[Concern]Dictionary{}
	}
	return &Store{dicts: dicts}
}

// UniversalFragments returns the universal baseline fragment of every
// concern, in merge order.
func (s *Store) UniversalFragments() []Fragment {
	out := make([]Fragment, 0, len(Concerns))
	for _, c := range Concerns {
		out = append(out, s.dicts[c].Universal)
	}
	return out
}

// PluginFragments returns the fragments registered for a plugin key, one
// per concern that knows the key, in merge order. The second result is the
// number of concerns that matched; a plugin counts as processed if any did.
func (s *Store) PluginFragments(key PluginKey) ([]Fragment, bool) {
	return s.lookupFragments(func(d Dictionary) (Fragment, bool) {
		f, ok := d.Plugins[key]
		return f, ok
	})
}

// ThemeFragments returns the fragments registered for a theme key, in merge
// order.
func (s *Store) ThemeFragments(key ThemeKey) ([]Fragment, bool) {
	return s.lookupFragments(func(d Dictionary) (Fragment, bool) {
		f, ok := d.Themes[key]
		return f, ok
	})
}

// ProviderFragments returns the fragments registered for a detected
// ad-provider tag, in merge order. Unknown tags simply return no fragments.
func (s *Store) ProviderFragments(tag string) ([]Fragment, bool) {
	return s.lookupFragments(func(d Dictionary) (Fragment, bool) {
		f, ok := d.Providers[tag]
		return f, ok
	})
}

// CompoundRules returns every compound rule across all concerns, in concern
// order then load (name) order within each concern.
func (s *Store) CompoundRules() []CompoundRule {
	var out []CompoundRule
	for _, c := range Concerns {
		out = append(out, s.dicts[c].Compound...)
	}
	return out
}

func (s *Store) lookupFragments(get func(Dictionary) (Fragment, bool)) ([]Fragment, bool) {
	var out []Fragment
	found := false
	for _, c := range Concerns {
		if f, ok := get(s.dicts[c]); ok {
			out = append(out, f)
			found = true
		}
	}
	return out, found
}

// Template is the parsed output template the assembler copies and fills.
type Template map[string]any
