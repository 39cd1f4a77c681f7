package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps preferences in the user_prefs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an open pool. The caller owns the pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the user_prefs table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	sql := `
	CREATE TABLE IF NOT EXISTS user_prefs (
		user_key TEXT PRIMARY KEY,
		language TEXT NOT NULL,
		currency TEXT NOT NULL,
		days_back INTEGER NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure prefs schema: %w", err)
	}
	return nil
}

// Load reads the preferences of user.
func (s *PostgresStore) Load(ctx context.Context, user string) (Preferences, error) {
	var p Preferences
	err := s.pool.QueryRow(ctx,
		`SELECT language, currency, days_back FROM user_prefs WHERE user_key = $1`,
		user,
	).Scan(&p.Language, &p.Currency, &p.DaysBack)
	if errors.Is(err, pgx.ErrNoRows) {
		return Preferences{}, ErrNotFound
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	return p, nil
}

// Save inserts or replaces the preferences of user.
func (s *PostgresStore) Save(ctx context.Context, user string, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
	INSERT INTO user_prefs (user_key, language, currency, days_back, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (user_key) DO UPDATE
	SET language = EXCLUDED.language,
		currency = EXCLUDED.currency,
		days_back = EXCLUDED.days_back,
		updated_at = NOW();
	`, user, p.Language, p.Currency, p.DaysBack)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
