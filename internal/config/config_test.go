package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KUFARWATCH_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, kufar.DefaultEndpoints, cfg.Endpoints)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, kufar.DefaultSearchParams(), cfg.Search)
	assert.InDelta(t, 3.2, cfg.USDToBYN, 1e-9)
	assert.Equal(t, 10, cfg.DaysBack)
	assert.Equal(t, 1, cfg.RecentDays)
	assert.Equal(t, 30, cfg.StatsDays)
	assert.Equal(t, 7, cfg.StatsWeekDays)
	assert.Equal(t, 10, cfg.ItemsPerPage)
	assert.Equal(t, "BYN", cfg.DefaultCurrency)
	assert.Equal(t, DefaultCatalog().Len(), cfg.Brands.Len())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("KUFAR_API_URL", "http://primary.test/search")
	t.Setenv("KUFAR_ALT_API_URLS", "http://alt1.test/search, http://alt2.test/search")
	t.Setenv("KUFAR_REQUEST_TIMEOUT", "3s")
	t.Setenv("KUFAR_CATEGORY", "17000")
	t.Setenv("DAYS_BACK", "5")
	t.Setenv("DISPLAY_CURRENCY", "usd")
	t.Setenv("CURRENCY_RATES", "USD=0.3,EUR=0.28")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://primary.test/search", "http://alt1.test/search", "http://alt2.test/search"}, cfg.Endpoints)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "17000", cfg.Search.Category)
	assert.Equal(t, 5, cfg.DaysBack)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, []string{"BYN", "EUR", "USD"}, cfg.Rates.Currencies())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_RejectsUnknownDisplayCurrency(t *testing.T) {
	t.Setenv("DISPLAY_CURRENCY", "XYZ")

	_, err := Load()
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestLoad_RejectsNonPositiveWindows(t *testing.T) {
	t.Setenv("STATS_DAYS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATS_DAYS")
}

func TestLoad_BrandsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brands.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"key": "foo", "label": "Foo", "keywords": ["foo", "фу"]},
		{"key": "bar", "keywords": ["bar"]}
	]`), 0o600))
	t.Setenv("KUFARWATCH_BRANDS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 2, cfg.Brands.Len())
	foo, ok := cfg.Brands.Lookup("foo")
	require.True(t, ok)
	assert.Equal(t, []string{"foo", "фу"}, foo.Keywords)
	bar, _ := cfg.Brands.Lookup("bar")
	assert.Equal(t, "bar", bar.Label, "blank label defaults to the key")
}

func TestNewCatalog_Validation(t *testing.T) {
	tests := []struct {
		name   string
		brands []Brand
	}{
		{"empty key", []Brand{{Key: " ", Keywords: []string{"x"}}}},
		{"duplicate key", []Brand{{Key: "a", Keywords: []string{"x"}}, {Key: "a", Keywords: []string{"y"}}}},
		{"no keywords", []Brand{{Key: "a", Keywords: []string{" "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.brands)
			require.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestCatalog_IsImmutable(t *testing.T) {
	c, err := NewCatalog([]Brand{{Key: "a", Label: "A", Keywords: []string{"x"}}})
	require.NoError(t, err)

	b, _ := c.Lookup("a")
	b.Keywords[0] = "mutated"
	all := c.All()
	all[0].Keywords[0] = "mutated too"

	again, _ := c.Lookup("a")
	assert.Equal(t, []string{"x"}, again.Keywords)
}

func TestCatalog_SortedByLabel(t *testing.T) {
	c, err := NewCatalog([]Brand{
		{Key: "z", Label: "Zeta", Keywords: []string{"z"}},
		{Key: "a", Label: "Alpha", Keywords: []string{"a"}},
	})
	require.NoError(t, err)

	sorted := c.SortedByLabel()
	assert.Equal(t, "a", sorted[0].Key)
	assert.Equal(t, "z", c.All()[0].Key, "All keeps configured order")
}

func TestRates_Convert(t *testing.T) {
	rates := DefaultRates()

	byn, err := rates.Convert(100, "byn")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, byn, 1e-9)

	usd, err := rates.Convert(32, "USD")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, usd, 1e-9)

	_, err = rates.Convert(1, "XYZ")
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestParseRates_RejectsGarbage(t *testing.T) {
	for _, raw := range []string{"USD", "USD=abc", "USD=-1"} {
		_, err := ParseRates(raw)
		assert.Error(t, err, raw)
	}
}
