package store

import (
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/astracat-dns/authdns/internal/record"
)

// cacheTTL bounds how long a resolved (zone, name, type) lookup is
// trusted before CachedStore re-consults the backing store. The store is
// operator-managed and changes infrequently, so a short fixed TTL is
// enough to absorb bursts of repeated queries for the same name without
// risking long-lived staleness.
const cacheTTL = 30 * time.Second

// cacheEntry distinguishes a cached hit from a cached miss so CachedStore
// doesn't need a second map just to remember "we already asked and there
// was nothing there".
type cacheEntry struct {
	rec   record.StoreRecord
	found bool
}

// Recorder receives cache and backend observability events. It is
// satisfied by *metrics.Metrics; store stays independent of the metrics
// package by depending only on this narrow interface.
type Recorder interface {
	IncrementCacheHits()
	IncrementCacheMisses()
	IncrementStoreErrors()
}

type noopRecorder struct{}

func (noopRecorder) IncrementCacheHits()   {}
func (noopRecorder) IncrementCacheMisses() {}
func (noopRecorder) IncrementStoreErrors() {}

// CachedStore wraps a Store with a ristretto read-through cache, the same
// admission-counted cache the teacher's internal/cache package layers in
// front of its resolver, applied here to smooth repeated store reads
// instead of resolver answers.
type CachedStore struct {
	backing  Store
	cache    *ristretto.Cache
	recorder Recorder
}

// NewCachedStore builds a CachedStore in front of backing, sized for
// maxEntries resident cache items.
func NewCachedStore(backing Store, maxEntries int64) (*CachedStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("store: create ristretto cache: %w", err)
	}
	return &CachedStore{backing: backing, cache: cache, recorder: noopRecorder{}}, nil
}

// SetRecorder attaches a metrics Recorder; calling it is optional.
func (c *CachedStore) SetRecorder(r Recorder) {
	if r != nil {
		c.recorder = r
	}
}

// Get implements Store, consulting the cache before falling through to
// the backing store on a miss.
func (c *CachedStore) Get(zone, name string, kind record.Type) (record.StoreRecord, error) {
	key := zone + "\x00" + name + "\x00" + kind.String()

	if cached, ok := c.cache.Get(key); ok {
		c.recorder.IncrementCacheHits()
		entry := cached.(cacheEntry)
		if entry.found {
			return entry.rec, nil
		}
		return record.StoreRecord{}, ErrNotFound
	}
	c.recorder.IncrementCacheMisses()

	rec, err := c.backing.Get(zone, name, kind)
	switch {
	case err == nil:
		c.cache.SetWithTTL(key, cacheEntry{rec: rec, found: true}, 1, cacheTTL)
	case err == ErrNotFound:
		c.cache.SetWithTTL(key, cacheEntry{found: false}, 1, cacheTTL)
	default:
		// Backend errors are never cached; the backend may recover on the
		// very next request and masking that behind a cache entry would
		// extend an outage past its actual duration.
		c.recorder.IncrementStoreErrors()
		log.Printf("store: backend error for %s/%s/%s: %v", zone, name, kind, err)
		return record.StoreRecord{}, err
	}

	return rec, err
}
