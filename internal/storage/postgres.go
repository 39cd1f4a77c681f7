// Package storage keeps track of listings already delivered to a user.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gauthierbraillon/kufarwatch/internal/clock"
	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
)

// DefaultRetention is how long a delivered listing is remembered.
const DefaultRetention = 30 * 24 * time.Hour

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return pool, nil
}

// Option configures a SeenStore.
type Option func(*SeenStore)

// WithClock sets the clock used for seen timestamps and retention.
func WithClock(c clock.Clock) Option {
	return func(s *SeenStore) {
		s.clock = c
	}
}

// WithRetention sets how long delivered listings are remembered.
func WithRetention(d time.Duration) Option {
	return func(s *SeenStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// SeenStore records which listings each user has already been shown.
type SeenStore struct {
	pool      *pgxpool.Pool
	clock     clock.Clock
	retention time.Duration
}

// NewSeenStore creates a store on an open pool. The caller owns the pool.
func NewSeenStore(pool *pgxpool.Pool, opts ...Option) *SeenStore {
	s := &SeenStore{
		pool:      pool,
		clock:     clock.Real{},
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the seen_listings table if it does not exist.
func (s *SeenStore) EnsureSchema(ctx context.Context) error {
	sql := `
	CREATE TABLE IF NOT EXISTS seen_listings (
		user_key TEXT NOT NULL,
		listing_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_key, listing_id)
	);

	CREATE INDEX IF NOT EXISTS idx_seen_listings_seen_at ON seen_listings(seen_at);
	`

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// FilterUnseen returns the listings user has not been shown, in input order.
func (s *SeenStore) FilterUnseen(ctx context.Context, user string, listings []kufar.Listing) ([]kufar.Listing, error) {
	if len(listings) == 0 {
		return []kufar.Listing{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT listing_id FROM seen_listings WHERE user_key = $1 AND listing_id = ANY($2)`,
		user, listingIDs(listings),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen listings: %w", err)
	}

	seen, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read seen listings: %w", err)
	}

	return excludeIDs(listings, seen), nil
}

// MarkSeen records listings as shown to user. Already recorded listings are left untouched.
func (s *SeenStore) MarkSeen(ctx context.Context, user string, listings []kufar.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	insertSQL := `
	INSERT INTO seen_listings (user_key, listing_id, title, seen_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_key, listing_id) DO NOTHING;
	`

	now := s.clock.Now()
	for _, l := range listings {
		batch.Queue(insertSQL, user, l.ID, l.Title, now)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}

	return nil
}

// Purge deletes records older than the retention period and reports how many were removed.
func (s *SeenStore) Purge(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.retention)

	tag, err := s.pool.Exec(ctx, `DELETE FROM seen_listings WHERE seen_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge seen listings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func listingIDs(listings []kufar.Listing) []string {
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	return ids
}

func excludeIDs(listings []kufar.Listing, ids []string) []kufar.Listing {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	out := make([]kufar.Listing, 0, len(listings))
	for _, l := range listings {
		if _, ok := drop[l.ID]; !ok {
			out = append(out, l)
		}
	}
	return out
}
