// Package prefs persists per-user display preferences.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a user has no saved preferences.
var ErrNotFound = errors.New("preferences not found")

// MaxDaysBack bounds the search depth a user can choose.
const MaxDaysBack = 365

// Preferences parameterize a user's searches and rendering.
type Preferences struct {
	Language string `json:"language"`
	Currency string `json:"currency"`
	DaysBack int    `json:"days_back"`
}

// Validate checks the search depth and normalizes the codes.
func (p *Preferences) Validate() error {
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))

	if p.Language == "" {
		return errors.New("language is required")
	}
	if p.Currency == "" {
		return errors.New("currency is required")
	}
	if p.DaysBack < 1 || p.DaysBack > MaxDaysBack {
		return fmt.Errorf("days back must be between 1 and %d, got %d", MaxDaysBack, p.DaysBack)
	}
	return nil
}

// Store loads and saves preferences keyed by user.
type Store interface {
	Load(ctx context.Context, user string) (Preferences, error)
	Save(ctx context.Context, user string, p Preferences) error
}

// LoadOrDefault returns the saved preferences of user, or defaults if none are saved.
func LoadOrDefault(ctx context.Context, s Store, user string, defaults Preferences) (Preferences, error) {
	p, err := s.Load(ctx, user)
	if errors.Is(err, ErrNotFound) {
		return defaults, nil
	}
	if err != nil {
		return Preferences{}, err
	}
	return p, nil
}
