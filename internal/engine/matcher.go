package engine

import "github.com/perfgen/perfgen/internal/ruleset"

// compoundApplies checks a compound rule's activation predicate.
//
// The predicate is satisfied when:
//  1. Every required plugin key is present in the normalized plugin set
//  2. The required theme, if set, is present in the processed theme set
//
// A rule with no required plugins and no required theme never activates:
// compound rules exist to describe plugin+theme interactions, and one with
// no conditions would otherwise silently apply to every site.
func compoundApplies(rule ruleset.CompoundRule, plugins map[ruleset.PluginKey]bool, themes map[ruleset.ThemeKey]bool) bool {
	if len(rule.RequiredPlugins) == 0 && rule.RequiredTheme == "" {
		return false
	}
	for _, p := range rule.RequiredPlugins {
		if !plugins[p] {
			return false
		}
	}
	if rule.RequiredTheme != "" && !themes[rule.RequiredTheme] {
		return false
	}
	return true
}
