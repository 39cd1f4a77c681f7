// Package aggregator combines keyword searches into deduplicated, date-filtered listing views.
//
// This package enables kufarwatch to:
// - Merge the results of several keyword variants of one brand without duplicates
// - Keep only listings inside a lookback window, always keeping undated ones
// - Scan every configured brand for recent activity
// - Summarize a brand's prices over a long window
package aggregator

import (
	"context"

	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
)

// Searcher runs a single keyword variant query. Implementations must absorb
// endpoint failures and only return an error when ctx is done.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]kufar.Listing, error)
}

// Windows are the lookback windows, in days, of the derived views.
type Windows struct {
	RecentDays int
	StatsDays  int
	WeekDays   int
}

// DefaultWindows returns a one-day recent scan and 30-day statistics with a 7-day sub-window.
func DefaultWindows() Windows {
	return Windows{RecentDays: 1, StatsDays: 30, WeekDays: 7}
}

// Stats summarizes a brand's listings. Prices are in Currency and only
// consider listings with a listed price; all fields are zero when there is no data.
type Stats struct {
	Total    int     `json:"total"`
	Week     int     `json:"week"`
	AvgPrice float64 `json:"avg_price"`
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
	Currency string  `json:"currency"`
}
