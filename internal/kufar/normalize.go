package kufar

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// minorUnits converts kopecks/cents into whole currency units.
const minorUnits = 100

// DefaultUSDToBYN is the fixed rate used when an ad only carries a USD price.
const DefaultUSDToBYN = 3.2

var errNotObject = errors.New("payload is not a JSON object")

// itemKeys are the top-level keys that may hold the ad list, in priority order.
var itemKeys = []string{"ads", "products"}

var listedAtLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalizer turns raw search payloads into Listings.
type Normalizer struct {
	usdToBYN float64
	logger   *slog.Logger
}

// NewNormalizer creates a Normalizer. A non-positive usdToBYN selects DefaultUSDToBYN.
func NewNormalizer(usdToBYN float64, logger *slog.Logger) *Normalizer {
	if usdToBYN <= 0 {
		usdToBYN = DefaultUSDToBYN
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Normalizer{usdToBYN: usdToBYN, logger: logger}
}

// Normalize extracts the ads of body whose title contains keyword
// (case-insensitively). Ads without a title match or without an id are
// skipped, as are repeated ids. A body that is not a JSON object yields an
// empty slice.
func (n *Normalizer) Normalize(body []byte, keyword string) []Listing {
	listings := []Listing{}

	doc, err := decodeObject(body)
	if err != nil {
		n.logger.Warn("unexpected payload shape", "keyword", keyword, "error", err)
		return listings
	}

	fold := cases.Fold()
	needle := fold.String(keyword)
	seen := make(map[string]struct{})

	for _, raw := range itemsOf(doc) {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		title, _ := titleOf(item)
		if !strings.Contains(fold.String(title), needle) {
			continue
		}

		id, ok := idOf(item)
		if !ok {
			n.logger.Debug("skipping ad without id", "title", title)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		link, ok := linkOf(item)
		if !ok {
			link = ItemURL(id)
		}

		listings = append(listings, Listing{
			ID:          id,
			Title:       title,
			Price:       n.priceOf(item),
			Link:        link,
			ListedAt:    n.listedAtOf(item, id),
			SourceQuery: keyword,
		})
	}

	n.logger.Debug("normalized payload", "keyword", keyword, "listings", len(listings))
	return listings
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errNotObject
	}
	return doc, nil
}

func itemsOf(doc map[string]any) []any {
	for _, key := range itemKeys {
		if items, ok := doc[key].([]any); ok && len(items) > 0 {
			return items
		}
	}
	return nil
}

// extractor reads one value out of an ad, reporting whether it found a usable one.
type extractor[T any] func(item map[string]any) (T, bool)

// firstOf tries extractors in order and returns the first usable value.
func firstOf[T any](extractors ...extractor[T]) extractor[T] {
	return func(item map[string]any) (T, bool) {
		for _, extract := range extractors {
			if v, ok := extract(item); ok {
				return v, true
			}
		}
		var zero T
		return zero, false
	}
}

func stringField(name string) extractor[string] {
	return func(item map[string]any) (string, bool) {
		s, ok := item[name].(string)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}

// idField accepts string and numeric ids.
func idField(name string) extractor[string] {
	return func(item map[string]any) (string, bool) {
		var s string
		switch v := item[name].(type) {
		case string:
			s = strings.TrimSpace(v)
		case json.Number:
			s = v.String()
		default:
			return "", false
		}
		return s, s != ""
	}
}

// amountField reads a positive number given either as a JSON number or a numeric string.
func amountField(name string) extractor[float64] {
	return func(item map[string]any) (float64, bool) {
		return toAmount(item[name])
	}
}

// nestedAmountField reads a positive amount from an object-valued field.
func nestedAmountField(name string, keys ...string) extractor[float64] {
	return func(item map[string]any) (float64, bool) {
		obj, ok := item[name].(map[string]any)
		if !ok {
			return 0, false
		}
		for _, key := range keys {
			if v, ok := toAmount(obj[key]); ok {
				return v, true
			}
		}
		return 0, false
	}
}

func toAmount(v any) (float64, bool) {
	var f float64
	var err error
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	case float64:
		f = n
	default:
		return 0, false
	}
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func scaled(extract extractor[float64], factor float64) extractor[float64] {
	return func(item map[string]any) (float64, bool) {
		v, ok := extract(item)
		if !ok {
			return 0, false
		}
		return v * factor, true
	}
}

var (
	titleOf = firstOf(stringField("subject"), stringField("title"), stringField("name"))
	idOf    = firstOf(idField("ad_id"), idField("id"), idField("item_id"))
	linkOf  = firstOf(stringField("ad_link"), stringField("url"))
)

func (n *Normalizer) priceOf(item map[string]any) float64 {
	price, _ := firstOf(
		scaled(amountField("price_byn"), 1.0/minorUnits),
		scaled(nestedAmountField("price", "byn", "amount"), 1.0/minorUnits),
		scaled(amountField("price"), 1.0/minorUnits),
		scaled(amountField("price_usd"), n.usdToBYN/minorUnits),
	)(item)
	return price
}

var listedAtFields = []string{"list_time", "date", "published_at"}

func (n *Normalizer) listedAtOf(item map[string]any, id string) time.Time {
	extractors := make([]extractor[time.Time], 0, len(listedAtFields))
	for _, name := range listedAtFields {
		extractors = append(extractors, n.timeField(name, id))
	}
	t, _ := firstOf(extractors...)(item)
	return t
}

func (n *Normalizer) timeField(name, id string) extractor[time.Time] {
	return func(item map[string]any) (time.Time, bool) {
		s, ok := item[name].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return time.Time{}, false
		}
		t, err := parseListedAt(s)
		if err != nil {
			n.logger.Debug("unparsable date", "id", id, "field", name, "value", s, "error", err)
			return time.Time{}, false
		}
		return t, true
	}
}

// parseListedAt parses ISO-8601-like timestamps. Offsets are honoured,
// a trailing Z is dropped and naive values are read as UTC.
func parseListedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	s = strings.TrimSuffix(s, "Z")
	var lastErr error
	for _, layout := range listedAtLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
