package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GenerationSummary is the listing view of a saved generation: metadata
// only, without the full configuration body.
type GenerationSummary struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"generated_at"`
	Domain            string    `json:"domain"`
	ClientIP          string    `json:"client_ip"`
	Theme             string    `json:"theme"`
	PluginsCount      int       `json:"plugins_count"`
	DetectedProviders []string  `json:"detected_ad_providers"`
}

// ListGenerations returns the most recent generations, newest first.
// Returns an empty slice (not nil) when the history is empty.
func (s *Store) ListGenerations(ctx context.Context, limit int) ([]GenerationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, domain, client_ip, theme, plugins_count, detected_providers
		FROM generations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	summaries := []GenerationSummary{}
	for rows.Next() {
		var (
			sum           GenerationSummary
			createdAt     string
			providersJSON string
		)
		if err := rows.Scan(&sum.ID, &createdAt, &sum.Domain, &sum.ClientIP, &sum.Theme, &sum.PluginsCount, &providersJSON); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		if err := json.Unmarshal([]byte(providersJSON), &sum.DetectedProviders); err != nil {
			return nil, fmt.Errorf("parse detected_providers: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return summaries, nil
}

// UsageStats aggregates the usage log by event type.
type UsageStats struct {
	Generations       int `json:"generations"`
	FailedGenerations int `json:"failed_generations"`
	Reloads           int `json:"reloads"`
	HealthChecks      int `json:"health_checks"`
	Detections        int `json:"detections"`
}

// Stats returns aggregate usage counts.
func (s *Store) Stats(ctx context.Context) (UsageStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, success, COUNT(*)
		FROM usage_events
		GROUP BY event_type, success
	`)
	if err != nil {
		return UsageStats{}, fmt.Errorf("query usage stats: %w", err)
	}
	defer rows.Close()

	var stats UsageStats
	for rows.Next() {
		var (
			eventType string
			success   int
			count     int
		)
		if err := rows.Scan(&eventType, &success, &count); err != nil {
			return UsageStats{}, fmt.Errorf("scan usage stats: %w", err)
		}
		switch eventType {
		case "generate":
			if success == 1 {
				stats.Generations += count
			} else {
				stats.FailedGenerations += count
			}
		case "reload":
			stats.Reloads += count
		case "health":
			stats.HealthChecks += count
		case "detect":
			stats.Detections += count
		}
	}
	if err := rows.Err(); err != nil {
		return UsageStats{}, fmt.Errorf("iterate usage stats: %w", err)
	}
	return stats, nil
}
