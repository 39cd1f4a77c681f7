//go:build integration

package prefs

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/kufarwatch/internal/storage"
)

// Run with: PG_DSN=postgres://... go test -tags=integration ./internal/prefs
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	ctx := context.Background()
	pool, err := storage.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewPostgresStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	user := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM user_prefs WHERE user_key = $1`, user)
	})

	_, err = store.Load(ctx, user)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, user, Preferences{Language: "ru", Currency: "BYN", DaysBack: 10}))
	require.NoError(t, store.Save(ctx, user, Preferences{Language: "en", Currency: "usd", DaysBack: 3}))

	got, err := store.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, Preferences{Language: "en", Currency: "USD", DaysBack: 3}, got)
}
