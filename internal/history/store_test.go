package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestSaveAndListGenerations(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, domain := range []string{"first.example", "second.example"} {
		err := store.SaveGeneration(ctx, GenerationRecord{
			ID:                NewGenerationID(),
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
			Domain:            domain,
			ClientIP:          "203.0.113.7",
			Theme:             "astra",
			Themes:            []string{"astra"},
			Plugins:           []string{"woocommerce", "elementor"},
			DetectedProviders: []string{"mediavine"},
			PluginsProcessed:  2,
			ThemesProcessed:   1,
			Config:            map[string]any{"remove_comment_urls": "1"},
		})
		require.NoError(t, err)
	}

	summaries, err := store.ListGenerations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first.
	assert.Equal(t, "second.example", summaries[0].Domain)
	assert.Equal(t, "first.example", summaries[1].Domain)
	assert.Equal(t, 2, summaries[0].PluginsCount)
	assert.Equal(t, []string{"mediavine"}, summaries[0].DetectedProviders)
	assert.True(t, summaries[0].CreatedAt.After(summaries[1].CreatedAt))
}

func TestSaveGenerationDuplicateID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := GenerationRecord{
		ID:        NewGenerationID(),
		CreatedAt: time.Now().UTC(),
		Domain:    "example.com",
	}
	require.NoError(t, store.SaveGeneration(ctx, rec))
	require.NoError(t, store.SaveGeneration(ctx, rec))

	summaries, err := store.ListGenerations(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestListGenerationsEmpty(t *testing.T) {
	store := openTestStore(t)

	summaries, err := store.ListGenerations(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestListGenerationsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveGeneration(ctx, GenerationRecord{
			ID:        NewGenerationID(),
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}

	summaries, err := store.ListGenerations(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, summaries, 3)
}

func TestLogEventAndStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	events := []Event{
		{Type: "generate", ClientIP: "203.0.113.7", Success: true},
		{Type: "generate", Success: true},
		{Type: "generate", Success: false, Error: "rule store not loaded"},
		{Type: "reload", Success: true},
		{Type: "health", Success: true},
		{Type: "detect", Success: false, Error: "fetch timed out"},
	}
	for _, ev := range events {
		require.NoError(t, store.LogEvent(ctx, ev))
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, UsageStats{
		Generations:       2,
		FailedGenerations: 1,
		Reloads:           1,
		HealthChecks:      1,
		Detections:        1,
	}, stats)
}

func TestStatsEmpty(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UsageStats{}, stats)
}
