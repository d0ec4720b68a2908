package ruleset

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// LoadError is a structured load failure. Any LoadError is fatal for the
// load or reload that produced it; a previously published snapshot stays
// active.
type LoadError struct {
	Code    string
	File    string
	Message string
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load error codes.
const (
	ErrCodeNotFound = "STORE_FILE_NOT_FOUND"
	ErrCodeParse    = "STORE_PARSE_ERROR"
	ErrCodeSchema   = "STORE_SCHEMA_ERROR"
)

// rawDictionary mirrors the on-disk document shape before key
// normalization.
type rawDictionary struct {
	Universal     Fragment               `json:"universal"`
	Plugins       map[string]Fragment    `json:"plugins"`
	Themes        map[string]Fragment    `json:"themes"`
	Providers     map[string]Fragment    `json:"providers"`
	CompoundRules map[string]rawCompound `json:"compound_rules"`
}

type rawCompound struct {
	Fragment
	RequiredTheme   string   `json:"required_theme"`
	RequiredPlugins []string `json:"required_plugins"`
}

// LoadDir loads the rule dictionaries from a directory. One JSON file per
// concern is expected: rucss.json, delay_js.json, js.json. Every file must
// exist, parse, and validate against the embedded CUE schema; any failure
// aborts the whole load.
//
// Missing namespaces inside a document (no "themes" key, etc.) behave as
// empty maps. All plugin/theme map keys and compound-rule predicates are
// normalized here so the store only ever holds canonical keys.
func LoadDir(dir string) (*Store, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile dictionary schema: %w", err)
	}
	defn := schema.LookupPath(cue.ParsePath("#Dictionary"))
	if !defn.Exists() {
		return nil, fmt.Errorf("dictionary schema missing #Dictionary")
	}

	dicts := make(map[Concern]Dictionary, len(Concerns))
	for _, concern := range Concerns {
		path := filepath.Join(dir, string(concern)+".json")
		dict, err := loadDictionary(ctx, defn, path)
		if err != nil {
			return nil, err
		}
		dicts[concern] = dict
	}
	return &Store{dicts: dicts}, nil
}

func loadDictionary(ctx *cue.Context, defn cue.Value, path string) (Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Dictionary{}, &LoadError{Code: ErrCodeNotFound, File: path, Message: "dictionary file not found"}
		}
		return Dictionary{}, &LoadError{Code: ErrCodeNotFound, File: path, Message: err.Error()}
	}

	// Schema validation first: unify the JSON document with #Dictionary
	// and require a fully concrete result.
	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return Dictionary{}, &LoadError{Code: ErrCodeParse, File: path, Message: err.Error()}
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return Dictionary{}, &LoadError{Code: ErrCodeParse, File: path, Message: err.Error()}
	}
	unified := defn.Unify(doc)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return Dictionary{}, &LoadError{
			Code:    ErrCodeSchema,
			File:    path,
			Message: strings.TrimSpace(cueerrors.Details(err, nil)),
		}
	}

	var raw rawDictionary
	if err := json.Unmarshal(data, &raw); err != nil {
		return Dictionary{}, &LoadError{Code: ErrCodeParse, File: path, Message: err.Error()}
	}
	return buildDictionary(raw), nil
}

// buildDictionary normalizes every key of a parsed document. When two raw
// keys normalize to the same canonical key the later one (in sorted raw-key
// order) wins; dictionaries are expected to use canonical keys already.
func buildDictionary(raw rawDictionary) Dictionary {
	dict := Dictionary{
		Universal: raw.Universal,
		Plugins:   make(map[PluginKey]Fragment, len(raw.Plugins)),
		Themes:    make(map[ThemeKey]Fragment, len(raw.Themes)),
		Providers: make(map[string]Fragment, len(raw.Providers)),
	}

	for _, name := range sortedKeys(raw.Plugins) {
		dict.Plugins[NormalizePlugin(name)] = raw.Plugins[name]
	}
	for _, name := range sortedKeys(raw.Themes) {
		dict.Themes[NormalizeTheme(name)] = raw.Themes[name]
	}
	for _, name := range sortedKeys(raw.Providers) {
		dict.Providers[strings.ToLower(name)] = raw.Providers[name]
	}

	for _, name := range sortedKeys(raw.CompoundRules) {
		rc := raw.CompoundRules[name]
		rule := CompoundRule{
			Name:     name,
			Fragment: rc.Fragment,
		}
		if rc.RequiredTheme != "" {
			rule.RequiredTheme = NormalizeTheme(rc.RequiredTheme)
		}
		for _, p := range rc.RequiredPlugins {
			rule.RequiredPlugins = append(rule.RequiredPlugins, NormalizePlugin(p))
		}
		dict.Compound = append(dict.Compound, rule)
	}
	return dict
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadTemplate reads and parses the output template. The template must be
// a JSON object; anything else is a fatal load error.
func LoadTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, File: path, Message: "template file not found"}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, File: path, Message: err.Error()}
	}
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, File: path, Message: err.Error()}
	}
	return tpl, nil
}
