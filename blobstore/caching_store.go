package blobstore

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// CachingStore wraps a remote Store with a read-through cache.
//
// Reads are served from the cache when possible and filled from the remote
// store on miss. Concurrent misses for the same artifact are deduplicated so
// the remote store sees a single fetch. Writes and deletes go to the remote
// store first and invalidate the cached copy.
type CachingStore struct {
	remote Store
	cache  Store
	group  singleflight.Group
}

// NewCachingStore creates a new CachingStore. The cache is typically a
// MemoryStore or a LocalStore on fast local disk.
func NewCachingStore(remote, cache Store) *CachingStore {
	return &CachingStore{
		remote: remote,
		cache:  cache,
	}
}

// Put writes to the remote store and drops any stale cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.remote.Put(ctx, name, data); err != nil {
		return err
	}
	return s.cache.Delete(ctx, name)
}

// Get returns the artifact from the cache, filling it from the remote store
// on miss.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if data, err := s.cache.Get(ctx, name); err == nil {
		return data, nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		data, err := s.remote.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		// Cache fill failures are non-fatal, the read already succeeded.
		_ = s.cache.Put(ctx, name, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Delete removes the artifact from the remote store and the cache.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	if err := s.remote.Delete(ctx, name); err != nil {
		return err
	}
	return s.cache.Delete(ctx, name)
}

// List lists the remote store. The cache may hold a subset, so listing it
// would be incomplete.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.remote.List(ctx, prefix)
}
