package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, c.Set(ctx, &core.CacheEntry{
		Key:       "k1",
		Kind:      core.KindSummary,
		Output:    "short summary",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	entry, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "short summary", entry.Output)
	assert.Equal(t, core.KindSummary, entry.Kind)

	require.NoError(t, c.Delete(ctx, "k1"))
	_, err = c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Set(ctx, &core.CacheEntry{Key: "old", Output: "x", ExpiresAt: base.Add(time.Minute)}))
	require.NoError(t, c.Set(ctx, &core.CacheEntry{Key: "new", Output: "y", ExpiresAt: base.Add(time.Hour)}))

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err := c.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrExpired)

	require.NoError(t, c.Cleanup(ctx))
	assert.Len(t, c.entries, 1)

	entry, err := c.Get(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "y", entry.Output)
}

func TestMemoryCacheRejectsEmptyKey(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()

	assert.Error(t, c.Set(context.Background(), &core.CacheEntry{Output: "x"}))
	assert.Error(t, c.Set(context.Background(), nil))
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), zap.NewNop(), 0)
	require.NoError(t, err)
	defer c.Stop()
	ctx := context.Background()

	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Set(ctx, &core.CacheEntry{
		Key:       "k1",
		Kind:      core.KindSentiment,
		Output:    "0.4 mildly positive",
		CreatedAt: base,
		ExpiresAt: base.Add(time.Hour),
	}))

	// Replacing an entry keeps one row
	require.NoError(t, c.Set(ctx, &core.CacheEntry{
		Key:       "k1",
		Kind:      core.KindSentiment,
		Output:    "0.5 positive",
		CreatedAt: base,
		ExpiresAt: base.Add(time.Hour),
	}))

	entry, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "0.5 positive", entry.Output)
	assert.Equal(t, core.KindSentiment, entry.Kind)
	assert.True(t, entry.ExpiresAt.Equal(base.Add(time.Hour)))

	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Cleanup(ctx))
	var count int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM generation_cache`).Scan(&count))
	assert.Equal(t, 0, count)
}
