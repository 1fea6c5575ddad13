package store

import (
	"context"
	"strconv"
	"time"

	"github.com/emerald-wallet/state/internal/model"
	"github.com/emerald-wallet/state/internal/storeconfig"
	"github.com/emerald-wallet/state/internal/storeerr"
)

const cachePurgeMarkerID = "_purge"

// CachePut stores value under id with the given ttl, clamped to
// storeconfig.CacheMaxTTL. A zero ttl falls back to storeconfig.CacheDefaultTTL.
// The value stays readable after ttl elapses until a purge removes it; Get
// does not check ttl.
func (s *Store) CachePut(ctx context.Context, id, value string, ttl time.Duration) error {
	if id == "" {
		return storeerr.InvalidValue("id")
	}
	if ttl <= 0 {
		ttl = storeconfig.CacheDefaultTTL
	}
	if ttl > storeconfig.CacheMaxTTL {
		ttl = storeconfig.CacheMaxTTL
	}

	now := uint64(time.Now().UnixMilli())
	entry := model.CacheEntry{
		ID:        id,
		Value:     value,
		Timestamp: now,
		TTL:       now + uint64(ttl.Milliseconds()),
	}
	if err := s.engine.Put(ctx, []byte(cacheKey(id)), entry.Marshal()); err != nil {
		return storeerr.IOf(err, "writing cache entry")
	}

	if s.cacheShouldPurge(ctx) {
		if _, err := s.CachePurge(ctx); err != nil {
			s.log.Warn("cache purge failed", "error", err)
		}
	}
	return nil
}

// CacheGet returns the value stored for id, regardless of whether its ttl
// has already elapsed (lazy expiry happens on Purge, not Get). A stored
// entry that fails to decode is reported as a corrupted-value error.
func (s *Store) CacheGet(ctx context.Context, id string) (string, bool, error) {
	raw, ok, err := s.engine.Get(ctx, []byte(cacheKey(id)))
	if err != nil {
		return "", false, storeerr.IOf(err, "reading cache entry")
	}
	if !ok {
		return "", false, nil
	}
	entry, err := model.UnmarshalCacheEntry(raw)
	if err != nil {
		return "", false, storeerr.Corruptedf(err, "cache entry %s", id)
	}
	return entry.Value, true, nil
}

// CacheEvict removes a cached value, idempotent if absent.
func (s *Store) CacheEvict(ctx context.Context, id string) error {
	if err := s.engine.Delete(ctx, []byte(cacheKey(id))); err != nil {
		return storeerr.IOf(err, "evicting cache entry")
	}
	return nil
}

// CachePurge deletes every cache entry whose ttl has elapsed (or that fails
// to decode, since a corrupted entry can never be read back anyway) and
// returns the number removed.
func (s *Store) CachePurge(ctx context.Context) (int, error) {
	it, err := s.engine.PrefixIterator(ctx, []byte(cachePrefix))
	if err != nil {
		return 0, storeerr.IOf(err, "scanning cache entries")
	}
	defer it.Close()

	now := uint64(time.Now().UnixMilli())
	batch := s.engine.NewBatch()
	count := 0
	for it.Next() {
		e := it.Entry()
		entry, err := model.UnmarshalCacheEntry(e.Value)
		if err != nil || entry.TTL < now {
			batch.Delete(e.Key)
			count++
		}
	}
	if err := it.Err(); err != nil {
		return 0, storeerr.IOf(err, "scanning cache entries")
	}

	if count > 0 {
		if err := s.engine.Apply(ctx, batch); err != nil {
			return 0, storeerr.IOf(err, "applying cache purge")
		}
	}
	s.cacheMarkPurged(ctx)
	return count, nil
}

func (s *Store) cacheShouldPurge(ctx context.Context) bool {
	raw, ok, err := s.CacheGet(ctx, cachePurgeMarkerID)
	if err != nil || !ok {
		return true
	}
	lastMs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true
	}
	last := time.UnixMilli(lastMs)
	return last.Before(time.Now().Add(-storeconfig.CachePurgeInterval))
}

// cacheMarkPurged records the purge timestamp directly, bypassing Put's
// should-purge check to avoid recursing.
func (s *Store) cacheMarkPurged(ctx context.Context) {
	now := uint64(time.Now().UnixMilli())
	entry := model.CacheEntry{
		ID:        cachePurgeMarkerID,
		Value:     strconv.FormatInt(int64(now), 10),
		Timestamp: now,
		TTL:       now + uint64(storeconfig.CacheMaxTTL.Milliseconds()),
	}
	_ = s.engine.Put(ctx, []byte(cacheKey(cachePurgeMarkerID)), entry.Marshal())
}
