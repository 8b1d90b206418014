package feeconfig

import (
	"sync"
	"time"

	"github.com/careledger/careledger/internal/domain/fees"
	"github.com/google/uuid"
)

// Cache is an explicit tenant-keyed configuration cache with a fixed TTL.
// Writes to a tenant's configuration must call Invalidate before
// returning so subsequent reads never observe a stale entry. Each
// invalidation bumps the tenant's generation; a Put carrying an older
// generation is discarded, so a load that started before a write can
// never repopulate the cache with the pre-write configuration.
type Cache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	entries     map[uuid.UUID]cacheEntry
	generations map[uuid.UUID]uint64
	now         func() time.Time // injectable clock for tests
}

type cacheEntry struct {
	cfg       *fees.FeeConfiguration
	expiresAt time.Time
}

// NewCache creates a cache with the given entry TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:         ttl,
		entries:     make(map[uuid.UUID]cacheEntry),
		generations: make(map[uuid.UUID]uint64),
		now:         time.Now,
	}
}

// Get returns the tenant's cached configuration, or nil on a miss or an
// expired entry
func (c *Cache) Get(tenantID uuid.UUID) *fees.FeeConfiguration {
	c.mu.RLock()
	entry, ok := c.entries[tenantID]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil
	}
	return entry.cfg
}

// Generation returns the tenant's current invalidation generation. Read
// it before loading from the store and hand it back to Put.
func (c *Cache) Generation(tenantID uuid.UUID) uint64 {
	c.mu.RLock()
	gen := c.generations[tenantID]
	c.mu.RUnlock()
	return gen
}

// Put stores the tenant's configuration with a fresh expiry. The entry
// is discarded when the tenant was invalidated after gen was read, so a
// stale load loses to a concurrent write.
func (c *Cache) Put(tenantID uuid.UUID, cfg *fees.FeeConfiguration, gen uint64) {
	c.mu.Lock()
	if c.generations[tenantID] == gen {
		c.entries[tenantID] = cacheEntry{
			cfg:       cfg,
			expiresAt: c.now().Add(c.ttl),
		}
	}
	c.mu.Unlock()
}

// Invalidate drops the tenant's entry and bumps its generation
func (c *Cache) Invalidate(tenantID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.generations[tenantID]++
	c.mu.Unlock()
}
