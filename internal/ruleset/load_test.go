package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRules writes one dictionary per concern into a fresh directory.
// Concerns absent from docs get an empty document.
func writeRules(t *testing.T, docs map[Concern]string) string {
	t.Helper()
	dir := t.TempDir()
	for _, c := range Concerns {
		doc, ok := docs[c]
		if !ok {
			doc = "{}"
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, string(c)+".json"), []byte(doc), 0o644))
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeRules(t, map[Concern]string{
		ConcernJS: `{
			"universal": {"js_exclusions": ["jquery.min.js"]},
			"plugins": {
				"WooCommerce 8.1": {"js_exclusions": ["woocommerce.min.js"]}
			},
			"themes": {
				"Astra v4.6": {"js_exclusions": ["astra.min.js"]}
			},
			"providers": {
				"MediaVine": {"js_exclusions": ["mediavine"]}
			},
			"compound_rules": {
				"zeta": {"required_plugins": ["a"], "js_exclusions": ["z.js"]},
				"alpha": {"required_theme": "Divi 4.9", "required_plugins": ["WooCommerce"], "js_exclusions": ["a.js"]}
			}
		}`,
	})

	store, err := LoadDir(dir)
	require.NoError(t, err)

	// Map keys are normalized on load.
	frags, ok := store.PluginFragments("woocommerce")
	require.True(t, ok)
	assert.Equal(t, []string{"woocommerce.min.js"}, frags[0].JS)

	_, ok = store.ThemeFragments("astra")
	assert.True(t, ok)

	_, ok = store.ProviderFragments("mediavine")
	assert.True(t, ok)

	// Compound rules are sorted by name and their predicates normalized.
	rules := store.CompoundRules()
	require.Len(t, rules, 2)
	assert.Equal(t, "alpha", rules[0].Name)
	assert.Equal(t, ThemeKey("divi"), rules[0].RequiredTheme)
	assert.Equal(t, []PluginKey{"woocommerce"}, rules[0].RequiredPlugins)
	assert.Equal(t, "zeta", rules[1].Name)
}

func TestLoadDirEmptyDocuments(t *testing.T) {
	dir := writeRules(t, nil)

	store, err := LoadDir(dir)
	require.NoError(t, err)

	_, ok := store.PluginFragments("anything")
	assert.False(t, ok)
	for _, f := range store.UniversalFragments() {
		assert.True(t, f.IsEmpty())
	}
}

func TestLoadDirMissingFile(t *testing.T) {
	dir := t.TempDir() // no files at all

	_, err := LoadDir(dir)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadDirInvalidJSON(t *testing.T) {
	dir := writeRules(t, map[Concern]string{
		ConcernRUCSS: `{not json`,
	})

	_, err := LoadDir(dir)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeParse, loadErr.Code)
}

func TestLoadDirSchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "tokens not an array", doc: `{"universal": {"js_exclusions": "jquery.min.js"}}`},
		{name: "unknown top-level key", doc: `{"plugins": {}, "bogus": {}}`},
		{name: "bad required_plugins", doc: `{"compound_rules": {"r": {"required_plugins": "woocommerce"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeRules(t, map[Concern]string{ConcernJS: tt.doc})

			_, err := LoadDir(dir)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, ErrCodeSchema, loadErr.Code)
		})
	}
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"perfmatters_options": {"assets": {}}}`), 0o644))

	tpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Contains(t, tpl, "perfmatters_options")
}

func TestLoadTemplateErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTemplate(filepath.Join(dir, "missing.json"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)

	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644))
	_, err = LoadTemplate(path)
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeParse, loadErr.Code)
}
