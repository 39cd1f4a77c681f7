// Package kufar provides a client for the Kufar classifieds search API.
//
// This package enables kufarwatch to:
// - Query the search API, falling back to alternate endpoints
// - Normalize the API's loosely shaped payloads into Listing records
// - Build canonical listing and web-search links
package kufar

import (
	"net/url"
	"time"
)

const (
	itemBaseURL   = "https://kufar.by/item/"
	webSearchURL  = "https://www.kufar.by/l"
	siteOrigin    = "https://kufar.by"
	siteReferer   = "https://kufar.by/"
	desktopUAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Listing is a normalized marketplace ad. Values are never mutated after
// normalization except for SourceLabel, which multi-brand scans attach.
type Listing struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// Price is in BYN. Zero means the seller did not list a price.
	Price float64 `json:"price"`
	Link  string  `json:"link"`
	// ListedAt is the publication time in UTC, zero when the payload had none.
	ListedAt    time.Time `json:"listed_at,omitempty"`
	SourceQuery string    `json:"source_query"`
	SourceLabel string    `json:"source_label,omitempty"`
}

// HasPrice reports whether the seller listed a price.
func (l Listing) HasPrice() bool {
	return l.Price != 0
}

// HasListedAt reports whether a publication time was parsed.
func (l Listing) HasListedAt() bool {
	return !l.ListedAt.IsZero()
}

// WithLabel returns a copy of l labelled with a brand display name.
func (l Listing) WithLabel(label string) Listing {
	l.SourceLabel = label
	return l
}

// ItemURL returns the canonical web link for a listing id.
func ItemURL(id string) string {
	return itemBaseURL + url.PathEscape(id)
}

// WebSearchURL returns the marketplace's own search page for query, newest first.
func WebSearchURL(query string) string {
	q := url.Values{}
	q.Set("ot", "1")
	q.Set("query", query)
	q.Set("sort", "lst.d")
	return webSearchURL + "?" + q.Encode()
}
