package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/diamond-entries/internal/config"
	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/fetcher"
	headlessfetcher "github.com/JakeFAU/diamond-entries/internal/fetcher/headless"
	"github.com/JakeFAU/diamond-entries/internal/notify"
	"github.com/JakeFAU/diamond-entries/internal/roster"
	"github.com/JakeFAU/diamond-entries/internal/source"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache.json")
	require.NoError(t, os.WriteFile(cachePath, []byte(`{}`), 0o600))
	return config.Config{
		Cache:   config.CacheConfig{Path: cachePath},
		Dataset: config.DatasetConfig{Path: filepath.Join(dir, "entries.json"), CalendarTimezone: "UTC"},
		Fetch:   config.FetchConfig{UserAgent: "test", TimeoutSeconds: 5},
		Registry: config.RegistryConfig{
			Endpoint:            "https://registry.test/graphql",
			TimeoutSeconds:      5,
			CollegeMinBirthYear: 2001,
		},
		Aggregator: config.AggregatorConfig{Host: "results.test"},
		Organizer:  config.OrganizerConfig{Category: "DL"},
		Meets: []config.MeetConfig{
			{Key: "millrose", Indoor: true, Sources: []string{"https://results.test/meet/1"}},
			{Key: "oslo", Sources: []string{"https://oslo.test/schedule", "lists/oslo.pdf"}},
		},
		Roster: config.RosterConfig{MaxEntrants: 16},
	}
}

func TestNewWithoutOptionalOutputs(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), baseConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, a.sink, 1)
	assert.IsType(t, notify.NoopPublisher{}, a.publisher)
	assert.Nil(t, a.metrics)
	assert.NotNil(t, a.Logger())
}

func TestNewFetcherSelection(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Fetch.PromoteHeadless = true
	cfg.Fetch.PromotionThreshold = 512
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	promoting, ok := a.fetcher.(fetcher.Promoting)
	require.True(t, ok)
	assert.NotNil(t, promoting.Detect)
	assert.Len(t, a.closers, 1)

	cfg = baseConfig(t)
	cfg.Fetch.Headless = true
	b, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer b.Close()
	assert.IsType(t, &headlessfetcher.Fetcher{}, b.fetcher)
}

func TestNewStartsMetricsServer(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Metrics.ListenAddr = "127.0.0.1:0"
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, a.metrics)
	assert.NotEmpty(t, a.metrics.Addr())
	a.Close()
}

func TestHarvesterWiring(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), baseConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Harvester()
	require.NoError(t, err)
	require.Len(t, h.Meets, 2)
	assert.Equal(t, entries.MeetMillrose, h.Meets[0].Meet)
	assert.True(t, h.Meets[0].Indoor)

	for src, want := range map[string]source.Kind{
		"https://results.test/meet/1": source.KindAggregator,
		"https://oslo.test/schedule":  source.KindOrganizer,
		"lists/oslo.pdf":              source.KindEntryList,
	} {
		adapter, err := h.Adapters.For(src)
		require.NoError(t, err, src)
		assert.Equal(t, want, adapter.Kind(), src)
	}
}

func TestHarvesterWithoutRegistry(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Registry.Endpoint = ""
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Harvester()
	require.NoError(t, err)
	_, err = h.Adapters.For("lists/oslo.pdf")
	require.ErrorIs(t, err, source.ErrNoAdapter)
}

func TestHarvesterMissingCache(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Cache.Path = filepath.Join(t.TempDir(), "absent.json")
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Harvester()
	require.Error(t, err)
}

func TestFiltererWiring(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	_, err = a.Filterer()
	require.Error(t, err)
	a.Close()

	cfg.Roster.Meet = "millrose"
	cfg.Roster.Listings = []roster.Listing{{Gender: entries.GenderMen, Day: 1, URL: "https://l.test/m1"}}
	a, err = New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	f, err := a.Filterer()
	require.NoError(t, err)
	assert.Equal(t, cfg.Dataset.Path, f.DatasetPath)
	assert.Equal(t, cfg, a.Config())
}
