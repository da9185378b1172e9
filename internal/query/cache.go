// Package query wraps the Spotify client with a request-keyed cache:
// per-operation staleness windows, in-flight deduplication, bounded
// retry with exponential backoff, next-page prefetching and a periodic
// eviction sweep.
package query

import (
	"sync"
	"time"
)

// policy holds the cache windows for one operation.
//
// staleTime is how long an entry is fresh enough to serve without a
// refetch. gcTime is how long an unused entry survives before it is
// treated as absent.
type policy struct {
	staleTime time.Duration
	gcTime    time.Duration
}

// Per-operation cache windows, matching how volatile each resource is:
// search results churn, a single artist barely changes.
var (
	policySearchArtists = policy{staleTime: 5 * time.Minute, gcTime: 10 * time.Minute}
	policySearchAlbums  = policy{staleTime: 5 * time.Minute, gcTime: 10 * time.Minute}
	policyArtist        = policy{staleTime: 15 * time.Minute, gcTime: 30 * time.Minute}
	policyArtistAlbums  = policy{staleTime: 10 * time.Minute, gcTime: 15 * time.Minute}
	policyTopTracks     = policy{staleTime: 10 * time.Minute, gcTime: 15 * time.Minute}
)

// maxEntryAge is the wall-clock age beyond which Sweep evicts an entry
// regardless of its operation policy.
const maxEntryAge = time.Hour

// entry is one cached result.
type entry struct {
	value     interface{}
	updatedAt time.Time
	gcTime    time.Duration
}

// call tracks an in-flight fetch so concurrent requests for the same
// key share one network call.
type call struct {
	done  chan struct{}
	value interface{}
	err   error
}

// cache is a request-keyed result cache with in-flight tracking.
type cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*call

	// now is swappable for tests.
	now func() time.Time
}

func newCache() *cache {
	return &cache{
		entries:  make(map[string]*entry),
		inflight: make(map[string]*call),
		now:      time.Now,
	}
}

// lookup returns the entry value for key and whether it is fresh under
// pol. Entries past their gcTime are deleted and reported absent.
func (c *cache) lookup(key string, pol policy) (value interface{}, fresh, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}

	age := c.now().Sub(e.updatedAt)
	if age >= e.gcTime {
		delete(c.entries, key)
		return nil, false, false
	}

	return e.value, age < pol.staleTime, true
}

// has reports whether any entry exists for key, fresh or stale. Used by
// prefetch, which never refreshes existing data.
func (c *cache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(e.updatedAt) >= e.gcTime {
		delete(c.entries, key)
		return false
	}
	return true
}

// store records a fetched value for key.
func (c *cache) store(key string, value interface{}, pol policy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		value:     value,
		updatedAt: c.now(),
		gcTime:    pol.gcTime,
	}
}

// begin registers an in-flight fetch for key. If another fetch for the
// same key is already running, begin returns its call and false, and
// the caller should wait on it instead of fetching.
func (c *cache) begin(key string) (*call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.inflight[key]; ok {
		return existing, false
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	return cl, true
}

// finish resolves an in-flight fetch and wakes all waiters.
func (c *cache) finish(key string, cl *call, value interface{}, err error) {
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()

	cl.value = value
	cl.err = err
	close(cl.done)
}

// sweep evicts all entries whose last update is older than cutoff and
// returns how many were removed.
func (c *cache) sweep(cutoff time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.updatedAt) >= cutoff {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// size returns the number of cached entries.
func (c *cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
