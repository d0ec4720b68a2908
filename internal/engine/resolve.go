package engine

import (
	"errors"
	"strings"

	"github.com/perfgen/perfgen/internal/ruleset"
)

// ErrNilStore is returned when Resolve is called without a loaded store.
// This is a caller precondition failure, not a per-request condition.
var ErrNilStore = errors.New("engine: rule store is nil")

// ProcessingInfo reports how many of the caller's identifiers matched a
// rule. Unknown identifiers are silently skipped and not counted.
type ProcessingInfo struct {
	PluginsProcessed int `json:"plugins_processed"`
	ThemesProcessed  int `json:"themes_processed"`
	// ThemeProcessed predates multi-theme support and is kept for older
	// clients that only check a boolean.
	ThemeProcessed bool `json:"theme_processed"`
}

// Result is the outcome of one resolution.
type Result struct {
	Exclusions *Exclusions
	Info       ProcessingInfo

	// ClearRemoveCommentURLs is set when any processed theme key contains
	// "kadence". Kadence's comment markup breaks when comment URL removal
	// is left enabled, so the assembler blanks that template field.
	ClearRemoveCommentURLs bool
}

// Resolve folds every applicable rule fragment into one merged exclusion
// set, in fixed precedence order (see the package doc).
//
// plugins are processed in input order without deduplication; themes are
// normalized and deduplicated preserving first-seen order before lookup.
// providerTags come from the ad-provider detector; tags unknown to the
// store are ignored. The store must be a consistent snapshot held for the
// whole call.
func Resolve(plugins []string, themes []string, providerTags []string, store *ruleset.Store) (*Result, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	res := &Result{Exclusions: newExclusions()}

	// Step 1: universal baseline.
	for _, f := range store.UniversalFragments() {
		res.Exclusions.appendFragment(f)
	}

	// Step 2: normalized, deduplicated theme sequence.
	themesToProcess := normalizeThemes(themes)
	themeSet := make(map[ruleset.ThemeKey]bool, len(themesToProcess))
	for _, t := range themesToProcess {
		themeSet[t] = true
	}
	pluginSet := make(map[ruleset.PluginKey]bool, len(plugins))
	for _, p := range plugins {
		pluginSet[ruleset.NormalizePlugin(p)] = true
	}

	// Step 3: compound rules. Store iteration order is deterministic for
	// a fixed store (concern order, then rule name order).
	for _, rule := range store.CompoundRules() {
		if compoundApplies(rule, pluginSet, themeSet) {
			res.Exclusions.appendFragment(rule.Fragment)
		}
	}

	// Step 4: detected ad providers.
	for _, tag := range providerTags {
		frags, ok := store.ProviderFragments(strings.ToLower(tag))
		if !ok {
			continue
		}
		for _, f := range frags {
			res.Exclusions.appendFragment(f)
		}
	}

	// Step 5: plugins, in original input order.
	for _, raw := range plugins {
		frags, ok := store.PluginFragments(ruleset.NormalizePlugin(raw))
		if !ok {
			continue
		}
		for _, f := range frags {
			res.Exclusions.appendFragment(f)
		}
		res.Info.PluginsProcessed++
	}

	// Step 6: themes, in deduplicated order.
	for _, key := range themesToProcess {
		frags, ok := store.ThemeFragments(key)
		if !ok {
			continue
		}
		for _, f := range frags {
			res.Exclusions.appendFragment(f)
		}
		res.Info.ThemesProcessed++
	}
	res.Info.ThemeProcessed = res.Info.ThemesProcessed > 0

	// Step 7: Kadence compatibility override.
	for _, key := range themesToProcess {
		if strings.Contains(string(key), "kadence") {
			res.ClearRemoveCommentURLs = true
			break
		}
	}

	return res, nil
}

// normalizeThemes normalizes a raw theme sequence and deduplicates it
// preserving first-seen order.
func normalizeThemes(themes []string) []ruleset.ThemeKey {
	seen := make(map[ruleset.ThemeKey]struct{}, len(themes))
	out := make([]ruleset.ThemeKey, 0, len(themes))
	for _, raw := range themes {
		key := ruleset.NormalizeTheme(raw)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
