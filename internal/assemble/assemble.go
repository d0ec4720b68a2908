// Package assemble injects a merged exclusion set into the output template.
//
// The template is shared read-only state; every call deep-copies it before
// writing, so concurrent requests never observe each other's output.
package assemble

import (
	"fmt"
	"strings"

	"github.com/perfgen/perfgen/internal/engine"
	"github.com/perfgen/perfgen/internal/ruleset"
)

// Mode selects how exclusion lists are serialized into the template.
// Deployments differ: some target plugin versions import newline-joined
// strings, others raw JSON arrays.
type Mode string

const (
	// ModeNewline joins each category with "\n" into a single string.
	ModeNewline Mode = "newline"
	// ModeArray writes each category as a JSON array.
	ModeArray Mode = "array"
)

// ParseMode validates a serialization mode from configuration. An empty
// value defaults to ModeNewline, the historical output format.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeNewline, nil
	case ModeNewline, ModeArray:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid serialization mode %q: must be %q or %q", s, ModeNewline, ModeArray)
}

// Template field names written by Assemble.
const (
	optionsField = "perfmatters_options"
	assetsField  = "assets"

	// removeCommentURLsField is blanked by the Kadence compatibility
	// override.
	removeCommentURLsField = "remove_comment_urls"
)

// Assemble deep-copies the template, writes each exclusion category into
// the nested assets object, and applies the Kadence override when the
// resolution requested it. The input template is never mutated.
func Assemble(tpl ruleset.Template, res *engine.Result, mode Mode) (map[string]any, error) {
	if res == nil {
		return nil, fmt.Errorf("assemble: nil resolution result")
	}
	if mode != ModeNewline && mode != ModeArray {
		return nil, fmt.Errorf("assemble: invalid serialization mode %q", mode)
	}

	config := deepCopyObject(tpl)

	options, ok := config[optionsField].(map[string]any)
	if !ok {
		options = map[string]any{}
		config[optionsField] = options
	}
	assets, ok := options[assetsField].(map[string]any)
	if !ok {
		assets = map[string]any{}
		options[assetsField] = assets
	}

	for _, c := range ruleset.Categories {
		tokens := res.Exclusions.List(c)
		switch mode {
		case ModeNewline:
			assets[string(c)] = strings.Join(tokens, "\n")
		case ModeArray:
			assets[string(c)] = tokens
		}
	}

	if res.ClearRemoveCommentURLs {
		config[removeCommentURLsField] = ""
	}

	return config, nil
}

// deepCopyObject recursively copies a JSON-shaped object. Only the types
// produced by encoding/json need handling; scalars are immutable and
// copied by value.
func deepCopyObject(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}
	return dst
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyObject(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = deepCopyValue(elem)
		}
		return out
	default:
		return val
	}
}
