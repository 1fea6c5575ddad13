package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetNothingExists(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.CacheGet(context.Background(), "test")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CachePut(ctx, "test", "hello world!", 0))

	v, ok, err := s.CacheGet(ctx, "test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello world!", v)
}

func TestCachePutAndEvict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CachePut(ctx, "test", "hello world!", 0))
	require.NoError(t, s.CacheEvict(ctx, "test"))

	_, ok, err := s.CacheGet(ctx, "test")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePurgeKeepsFreshValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CachePut(ctx, "test", "hello world!", 0))

	n, err := s.CachePurge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, ok, err := s.CacheGet(ctx, "test")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCachePurgeDeletesExpiredValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CachePut(ctx, "test", "hello world!", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	n, err := s.CachePurge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := s.CacheGet(ctx, "test")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePurgeMarkerSurvivesItsOwnPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CachePut(ctx, "test", "hello world!", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err := s.CachePurge(ctx)
	require.NoError(t, err)

	_, ok, err := s.CacheGet(ctx, cachePurgeMarkerID)
	require.NoError(t, err)
	assert.True(t, ok)
}
