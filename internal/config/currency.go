package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BaseCurrency is the currency every Listing price is normalized to.
const BaseCurrency = "BYN"

// ErrUnknownCurrency is returned when converting into a currency missing from the table.
var ErrUnknownCurrency = errors.New("unknown currency")

// Rates converts BYN amounts into display currencies. Each entry is the
// number of target units per one BYN, so target = byn * rate.
type Rates struct {
	table map[string]float64
}

// NewRates copies table. The base currency is always present with rate 1.
func NewRates(table map[string]float64) (Rates, error) {
	r := Rates{table: map[string]float64{BaseCurrency: 1}}
	for code, rate := range table {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if rate <= 0 {
			return Rates{}, fmt.Errorf("rate for %s must be positive, got %v", code, rate)
		}
		if code == BaseCurrency {
			continue
		}
		r.table[code] = rate
	}
	return r, nil
}

// DefaultRates returns the built-in conversion table.
func DefaultRates() Rates {
	r, _ := NewRates(map[string]float64{
		"USD": 1 / 3.2,
		"EUR": 0.29,
		"RUB": 28.0,
	})
	return r
}

// ParseRates parses "USD=0.31,EUR=0.29" into a table.
func ParseRates(s string) (Rates, error) {
	table := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Rates{}, fmt.Errorf("invalid rate %q: want CODE=RATE", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return Rates{}, fmt.Errorf("invalid rate %q: %w", pair, err)
		}
		table[code] = rate
	}
	return NewRates(table)
}

// Convert converts a BYN amount into currency.
func (r Rates) Convert(byn float64, currency string) (float64, error) {
	rate, ok := r.rate(currency)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}
	return byn * rate, nil
}

// Supports reports whether currency is in the table.
func (r Rates) Supports(currency string) bool {
	_, ok := r.rate(currency)
	return ok
}

// Currencies lists the known currency codes alphabetically.
func (r Rates) Currencies() []string {
	codes := make([]string, 0, len(r.table))
	for code := range r.table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (r Rates) rate(currency string) (float64, bool) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == BaseCurrency {
		return 1, true
	}
	rate, ok := r.table[code]
	return rate, ok
}
