package store

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	flag := &engine.Flag{Key: "checkout", Enabled: true}
	require.NoError(t, s.Set(ctx, 1, "checkout", flag))

	got, hit, err := s.Get(ctx, 1, "checkout")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "checkout", got.Key)
	assert.True(t, got.Enabled)
}

func TestMemoryStore_MissAndInvalidate(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	_, hit, err := s.Get(ctx, 1, "missing")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, s.Set(ctx, 1, "gone", &engine.Flag{Key: "gone"}))
	require.NoError(t, s.Invalidate(ctx, 1, "gone"))

	_, hit, err = s.Get(ctx, 1, "gone")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStore_TenantScoped(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 1, "shared-key", &engine.Flag{Key: "shared-key", Enabled: true}))

	_, hit, err := s.Get(ctx, 2, "shared-key")
	require.NoError(t, err)
	assert.False(t, hit, "tenants never share snapshots")
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 1, "ephemeral", &engine.Flag{Key: "ephemeral"}))
	time.Sleep(5 * time.Millisecond)

	_, hit, err := s.Get(ctx, 1, "ephemeral")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStore_CopyOnRead(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 1, "immutable", &engine.Flag{Key: "immutable", Enabled: true}))

	first, _, err := s.Get(ctx, 1, "immutable")
	require.NoError(t, err)
	first.Enabled = false

	second, _, err := s.Get(ctx, 1, "immutable")
	require.NoError(t, err)
	assert.True(t, second.Enabled, "callers get a copy, not the cached entry")
}
