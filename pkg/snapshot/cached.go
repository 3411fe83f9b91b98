package snapshot

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/observability"
)

// CachedStore serves repeated Get calls from an in-process LRU cache and
// forwards everything else to the wrapped backend. Writes go through the
// backend first and update the cache only on success.
type CachedStore struct {
	next  Store
	cache *lru.Cache[string, Snapshot]
}

// NewCachedStore wraps next with an LRU cache holding up to size snapshots.
func NewCachedStore(next Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, Snapshot](size)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "create snapshot cache")
	}
	return &CachedStore{next: next, cache: cache}, nil
}

func (c *CachedStore) Save(ctx context.Context, s Snapshot) error {
	if err := c.next.Save(ctx, s); err != nil {
		return err
	}
	c.cache.Add(s.ID, s.Clone())
	return nil
}

func (c *CachedStore) Get(ctx context.Context, id string) (Snapshot, error) {
	if s, ok := c.cache.Get(id); ok {
		observability.Snapshot().OnCacheHit(ctx, c.next.Backend())
		return s.Clone(), nil
	}
	observability.Snapshot().OnCacheMiss(ctx, c.next.Backend())
	s, err := c.next.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	c.cache.Add(id, s.Clone())
	return s, nil
}

func (c *CachedStore) List(ctx context.Context) ([]Info, error) {
	return c.next.List(ctx)
}

func (c *CachedStore) Delete(ctx context.Context, id string) error {
	c.cache.Remove(id)
	return c.next.Delete(ctx, id)
}

// Backend returns the wrapped backend's name.
func (c *CachedStore) Backend() string { return c.next.Backend() }

// Len returns the number of cached snapshots.
func (c *CachedStore) Len() int { return c.cache.Len() }

func (c *CachedStore) Close() error {
	c.cache.Purge()
	return c.next.Close()
}

var _ Store = (*CachedStore)(nil)
