package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts Go duration strings ("10s", "1m30s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard-library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig is the serve command's configuration file. All fields have
// working defaults so a bare `perfgen serve` with the default layout works.
type ServerConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// RulesDir holds the rule dictionaries (rucss.json, delay_js.json,
	// js.json).
	RulesDir string `yaml:"rules_dir"`

	// TemplatePath is the output template document.
	TemplatePath string `yaml:"template"`

	// DatabasePath is the SQLite history database. Empty disables
	// persistence.
	DatabasePath string `yaml:"database"`

	// DetectTimeout bounds the ad-provider page fetch.
	DetectTimeout Duration `yaml:"detect_timeout"`

	// Serialization selects how exclusion lists are written into the
	// template: "newline" (joined string) or "array".
	Serialization string `yaml:"serialization"`
}

// DefaultServerConfig mirrors the original deployment's layout.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:        ":8080",
		RulesDir:      "config/rules",
		TemplatePath:  "config/template.json",
		DatabasePath:  "perfgen.db",
		DetectTimeout: Duration(10 * time.Second),
		Serialization: "newline",
	}
}

// LoadServerConfig reads a YAML config file over the defaults. An empty
// path returns the defaults unchanged.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
