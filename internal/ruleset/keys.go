package ruleset

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PluginKey is a normalized plugin lookup key. Construct only via
// NormalizePlugin so unnormalized identifiers never reach a dictionary.
type PluginKey string

// ThemeKey is a normalized theme lookup key. Construct only via
// NormalizeTheme.
type ThemeKey string

// pluginVersionRE matches a trailing version marker on a raw plugin name:
// a run of whitespace, a digit, and anything after it ("Contact Form 7",
// "WP Rocket 3.15.4").
var pluginVersionRE = regexp.MustCompile(`\s+\d.*$`)

// themeSuffixPatterns strips version-like suffixes from an already
// lowercased, hyphenated theme key. Patterns are tried in order and only
// the first match is applied, so new vendor suffix conventions can be
// appended without touching the merge logic.
var themeSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`-v\d+(\.\d+)*$`),
	regexp.MustCompile(`-version-\d+(\.\d+)*$`),
	regexp.MustCompile(`-\d+\.\d+(\.\d+)*$`),
	regexp.MustCompile(`-\d+$`),
}

// NormalizePlugin canonicalizes a raw plugin identifier into a lookup key.
//
// Steps, in order:
//  1. Cut at the first "/" (plugin paths like "woocommerce/woocommerce.php").
//  2. Strip a trailing version marker (whitespace + digits + rest).
//  3. Lowercase and replace spaces/underscores with hyphens.
//
// The function is total and idempotent: any input yields a key, and
// normalizing a key again returns it unchanged.
func NormalizePlugin(raw string) PluginKey {
	s := norm.NFC.String(raw)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	s = pluginVersionRE.ReplaceAllString(s, "")
	s = hyphenate(s)
	return PluginKey(s)
}

// NormalizeTheme canonicalizes a raw theme identifier into a lookup key.
// The identifier is lowercased and hyphenated, then at most one
// version-like suffix is stripped (first matching pattern wins).
func NormalizeTheme(raw string) ThemeKey {
	s := hyphenate(norm.NFC.String(raw))
	for _, re := range themeSuffixPatterns {
		if re.MatchString(s) {
			s = re.ReplaceAllString(s, "")
			break
		}
	}
	return ThemeKey(s)
}

func hyphenate(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return s
}
