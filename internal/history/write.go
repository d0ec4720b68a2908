package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerationRecord captures one generated configuration with its request
// metadata.
type GenerationRecord struct {
	ID                string         `json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	Domain            string         `json:"domain"`
	ClientIP          string         `json:"client_ip"`
	UserAgent         string         `json:"user_agent"`
	Theme             string         `json:"theme"`
	Themes            []string       `json:"themes"`
	Plugins           []string       `json:"plugins"`
	DetectedProviders []string       `json:"detected_ad_providers"`
	PluginsProcessed  int            `json:"plugins_processed"`
	ThemesProcessed   int            `json:"themes_processed"`
	Config            map[string]any `json:"config"`
}

// NewGenerationID returns a fresh identifier for a generation record.
func NewGenerationID() string {
	return uuid.NewString()
}

// SaveGeneration inserts a generation record. Duplicate IDs are silently
// ignored so a retried save is idempotent.
func (s *Store) SaveGeneration(ctx context.Context, rec GenerationRecord) error {
	themesJSON, err := marshalList(rec.Themes)
	if err != nil {
		return fmt.Errorf("save generation: %w", err)
	}
	pluginsJSON, err := marshalList(rec.Plugins)
	if err != nil {
		return fmt.Errorf("save generation: %w", err)
	}
	providersJSON, err := marshalList(rec.DetectedProviders)
	if err != nil {
		return fmt.Errorf("save generation: %w", err)
	}
	configJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("save generation: marshal config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generations
		(id, created_at, domain, client_ip, user_agent, theme, themes, plugins,
		 plugins_count, detected_providers, plugins_processed, themes_processed, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Domain,
		rec.ClientIP,
		rec.UserAgent,
		rec.Theme,
		themesJSON,
		pluginsJSON,
		len(rec.Plugins),
		providersJSON,
		rec.PluginsProcessed,
		rec.ThemesProcessed,
		string(configJSON),
	)
	if err != nil {
		return fmt.Errorf("save generation: %w", err)
	}
	return nil
}

// Event is one usage-log row.
type Event struct {
	Type     string // "generate", "reload", "health", "detect"
	ClientIP string
	Success  bool
	Error    string
}

// LogEvent appends a usage event. Failures here are reported but callers
// treat them as non-fatal: losing a usage row must never fail a request.
func (s *Store) LogEvent(ctx context.Context, ev Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (event_type, created_at, client_ip, success, error)
		VALUES (?, ?, ?, ?, ?)
	`,
		ev.Type,
		time.Now().UTC().Format(time.RFC3339Nano),
		ev.ClientIP,
		boolToInt(ev.Success),
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
