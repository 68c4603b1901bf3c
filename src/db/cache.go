package db

import (
	"context"
	"slices"
	"sync"
	"time"

	"expense-tracker-server/src/models"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// ListCache holds each owner's transaction listing. Entries are replaced
// wholesale and dropped on any write by that owner.
//
// Every Invalidate and ClearAll advances a generation. A listing read from
// the store is only cached if no generation change happened since the read
// started, so a fill racing a write never stores the pre-write rows.
type ListCache struct {
	cache *ristretto.Cache
	ttl   time.Duration

	mu      sync.Mutex
	seq     uint64
	cleared uint64
	gens    map[string]uint64
}

func NewListCache(ttl time.Duration) (*ListCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, err
	}
	return &ListCache{cache: cache, ttl: ttl, gens: make(map[string]uint64)}, nil
}

func transactionCacheKey(ownerID string) string {
	return "transactions:" + ownerID
}

func (c *ListCache) Get(ownerID string) ([]models.Transaction, bool) {
	value, ok := c.cache.Get(transactionCacheKey(ownerID))
	if !ok {
		return nil, false
	}
	records, ok := value.([]models.Transaction)
	if !ok {
		return nil, false
	}
	return slices.Clone(records), true
}

// Generation returns the owner's current generation. Pass it to
// SetIfCurrent after reading the listing from the store.
func (c *ListCache) Generation(ownerID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation(ownerID)
}

func (c *ListCache) generation(ownerID string) uint64 {
	return max(c.gens[ownerID], c.cleared)
}

// SetIfCurrent caches records only if the owner's generation still equals
// gen, and reports whether it did.
func (c *ListCache) SetIfCurrent(ownerID string, gen uint64, records []models.Transaction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation(ownerID) != gen {
		return false
	}
	c.set(ownerID, records)
	return true
}

func (c *ListCache) Set(ownerID string, records []models.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(ownerID, records)
}

func (c *ListCache) set(ownerID string, records []models.Transaction) {
	key := transactionCacheKey(ownerID)
	value := slices.Clone(records)
	cost := int64(len(value)) + 1
	if c.ttl > 0 {
		c.cache.SetWithTTL(key, value, cost, c.ttl)
		return
	}
	c.cache.Set(key, value, cost)
}

func (c *ListCache) Invalidate(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.gens[ownerID] = c.seq
	c.cache.Del(transactionCacheKey(ownerID))
}

// ClearAll drops every cached listing.
func (c *ListCache) ClearAll() {
	c.mu.Lock()
	c.seq++
	c.cleared = c.seq
	clear(c.gens)
	c.cache.Clear()
	c.mu.Unlock()
	log.Info().Msg("Cleared all transaction list caches")
}

// Wait blocks until buffered writes have been applied.
func (c *ListCache) Wait() {
	c.cache.Wait()
}

func (c *ListCache) Close() {
	c.cache.Close()
}

// CachedTransactionStore serves ListTransactions from a ListCache and
// invalidates the owner's entry on every successful write.
type CachedTransactionStore struct {
	TransactionStore
	cache *ListCache
}

func NewCachedTransactionStore(store TransactionStore, cache *ListCache) *CachedTransactionStore {
	return &CachedTransactionStore{TransactionStore: store, cache: cache}
}

func (s *CachedTransactionStore) ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	if records, ok := s.cache.Get(ownerID); ok {
		return records, nil
	}
	gen := s.cache.Generation(ownerID)
	records, err := s.TransactionStore.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !s.cache.SetIfCurrent(ownerID, gen, records) {
		log.Debug().Str("user", ownerID).Msg("Skipped caching listing invalidated during read")
	}
	return records, nil
}

func (s *CachedTransactionStore) InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	created, err := s.TransactionStore.InsertTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(created.OwnerID)
	return created, nil
}

func (s *CachedTransactionStore) UpdateTransaction(ctx context.Context, tx *models.Transaction, expectedVersion int64) (*models.Transaction, error) {
	updated, err := s.TransactionStore.UpdateTransaction(ctx, tx, expectedVersion)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(updated.OwnerID)
	return updated, nil
}

func (s *CachedTransactionStore) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if err := s.TransactionStore.DeleteTransaction(ctx, ownerID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ownerID)
	return nil
}
