package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gauthierbraillon/kufarwatch/internal/clock"
	"github.com/gauthierbraillon/kufarwatch/internal/config"
	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
)

// ErrUnknownBrand is returned for brand keys missing from the catalog.
var ErrUnknownBrand = errors.New("unknown brand")

const day = 24 * time.Hour

// Option configures the Engine.
type Option func(*Engine)

// WithClock sets the clock used for lookback cutoffs.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger for recovered failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWindows overrides the recent and statistics windows.
func WithWindows(w Windows) Option {
	return func(e *Engine) {
		e.windows = w
	}
}

// Engine runs searches over keyword variants and brands.
type Engine struct {
	searcher Searcher
	brands   config.Catalog
	rates    config.Rates
	windows  Windows
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates an Engine. brands and rates are immutable and shared read-only.
func New(searcher Searcher, brands config.Catalog, rates config.Rates, opts ...Option) *Engine {
	e := &Engine{
		searcher: searcher,
		brands:   brands,
		rates:    rates,
		windows:  DefaultWindows(),
		clock:    clock.Real{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Search queries each keyword variant in order and returns the listings
// published within lookbackDays, newest first, without repeated ids.
// Listings without a publication time are always kept and sort last.
// A failing variant contributes nothing; only cancellation of ctx aborts.
func (e *Engine) Search(ctx context.Context, keywords []string, lookbackDays int) ([]kufar.Listing, error) {
	cutoff := e.clock.Now().Add(-time.Duration(lookbackDays) * day)
	seen := newIDSet()
	results := []kufar.Listing{}

	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search aborted: %w", err)
		}

		listings, err := e.searcher.Search(ctx, keyword)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("search aborted: %w", ctxErr)
			}
			e.logger.Warn("keyword variant failed", "keyword", keyword, "error", err)
			continue
		}

		kept := 0
		for _, l := range listings {
			if !withinWindow(l, cutoff) || !seen.add(l.ID) {
				continue
			}
			results = append(results, l)
			kept++
		}

		e.logger.Debug("keyword variant searched",
			"keyword", keyword, "fetched", len(listings), "kept", kept, "days", lookbackDays)
	}

	sortNewestFirst(results)
	return results, nil
}

// SearchBrand searches every keyword variant of the brand registered under key.
func (e *Engine) SearchBrand(ctx context.Context, key string, lookbackDays int) ([]kufar.Listing, error) {
	brand, ok := e.brands.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBrand, key)
	}
	return e.Search(ctx, brand.Keywords, lookbackDays)
}

// Recent scans every brand over the recent window and merges the results,
// newest first. Each listing carries the label of the first brand that found it.
func (e *Engine) Recent(ctx context.Context) ([]kufar.Listing, error) {
	seen := newIDSet()
	results := []kufar.Listing{}

	for _, brand := range e.brands.All() {
		listings, err := e.Search(ctx, brand.Keywords, e.windows.RecentDays)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("recent scan aborted: %w", ctxErr)
			}
			e.logger.Warn("brand scan failed", "brand", brand.Key, "error", err)
			continue
		}

		for _, l := range listings {
			if seen.add(l.ID) {
				results = append(results, l.WithLabel(brand.Label))
			}
		}

		e.logger.Info("brand scanned", "brand", brand.Key, "listings", len(listings))
	}

	sortNewestFirst(results)
	return results, nil
}

// Stats searches the keyword variants over the statistics window and
// summarizes the result with prices converted into currency.
func (e *Engine) Stats(ctx context.Context, keywords []string, currency string) (Stats, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !e.rates.Supports(currency) {
		return Stats{}, fmt.Errorf("%w: %s", config.ErrUnknownCurrency, currency)
	}

	listings, err := e.Search(ctx, keywords, e.windows.StatsDays)
	if err != nil {
		return Stats{}, err
	}

	return e.summarize(listings, currency)
}

// StatsBrand computes Stats for the brand registered under key.
func (e *Engine) StatsBrand(ctx context.Context, key, currency string) (Stats, error) {
	brand, ok := e.brands.Lookup(key)
	if !ok {
		return Stats{}, fmt.Errorf("%w: %q", ErrUnknownBrand, key)
	}
	return e.Stats(ctx, brand.Keywords, currency)
}

func (e *Engine) summarize(listings []kufar.Listing, currency string) (Stats, error) {
	stats := Stats{Total: len(listings), Currency: currency}
	weekCutoff := e.clock.Now().Add(-time.Duration(e.windows.WeekDays) * day)

	var sum float64
	priced := 0
	for _, l := range listings {
		if l.HasListedAt() && !l.ListedAt.Before(weekCutoff) {
			stats.Week++
		}
		if !l.HasPrice() {
			continue
		}

		sum += l.Price
		if priced == 0 || l.Price < stats.MinPrice {
			stats.MinPrice = l.Price
		}
		if priced == 0 || l.Price > stats.MaxPrice {
			stats.MaxPrice = l.Price
		}
		priced++
	}

	if priced == 0 {
		return stats, nil
	}
	stats.AvgPrice = sum / float64(priced)

	var err error
	for _, p := range []*float64{&stats.AvgPrice, &stats.MinPrice, &stats.MaxPrice} {
		if *p, err = e.rates.Convert(*p, currency); err != nil {
			return Stats{}, err
		}
	}
	return stats, nil
}

// withinWindow keeps undated listings and those published at or after cutoff.
func withinWindow(l kufar.Listing, cutoff time.Time) bool {
	return !l.HasListedAt() || !l.ListedAt.Before(cutoff)
}

// sortNewestFirst orders by publication time descending; undated listings go last.
func sortNewestFirst(listings []kufar.Listing) {
	slices.SortStableFunc(listings, func(a, b kufar.Listing) int {
		return b.ListedAt.Compare(a.ListedAt)
	})
}
