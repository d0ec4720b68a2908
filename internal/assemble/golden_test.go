package assemble

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/perfgen/perfgen/internal/engine"
	"github.com/perfgen/perfgen/internal/ruleset"
)

// Golden files pin the full resolve-and-assemble output byte for byte.
// Regenerate with:
//
//	go test ./internal/assemble -update
func goldenStore() *ruleset.Store {
	return ruleset.NewStore(map[ruleset.Concern]ruleset.Dictionary{
		ruleset.ConcernJS: {
			Universal: ruleset.Fragment{JS: []string{"jquery.min.js"}},
			Plugins: map[ruleset.PluginKey]ruleset.Fragment{
				"woocommerce": {JS: []string{"woocommerce.min.js"}},
			},
		},
		ruleset.ConcernRUCSS: {
			Themes: map[ruleset.ThemeKey]ruleset.Fragment{
				"astra":   {RUCSSStylesheets: []string{"astra.css"}},
				"kadence": {RUCSSStylesheets: []string{"kadence-global.css"}},
			},
		},
	})
}

func goldenTemplate() ruleset.Template {
	return ruleset.Template{
		"perfmatters_options": map[string]any{
			"assets": map[string]any{"defer_js": true},
		},
		"remove_comment_urls": "1",
	}
}

func assertGolden(t *testing.T, name string, config map[string]any) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

func TestGoldenNewlineConfig(t *testing.T) {
	res, err := engine.Resolve([]string{"WooCommerce"}, []string{"Astra"}, nil, goldenStore())
	require.NoError(t, err)

	config, err := Assemble(goldenTemplate(), res, ModeNewline)
	require.NoError(t, err)

	assertGolden(t, "newline_config", config)
}

func TestGoldenArrayConfigWithKadence(t *testing.T) {
	res, err := engine.Resolve([]string{"WooCommerce"}, []string{"Kadence"}, nil, goldenStore())
	require.NoError(t, err)

	config, err := Assemble(goldenTemplate(), res, ModeArray)
	require.NoError(t, err)

	assertGolden(t, "array_config_kadence", config)
}
