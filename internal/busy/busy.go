// Package busy tracks which entity ids have an action in flight.
package busy

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Lease is one successful acquire of an id. Only the lease that currently holds
// the id can release it.
type Lease struct {
	id    uint64
	token uint64
}

// Set is a concurrency-safe set of pending ids. Entries older than the TTL are
// treated as released so that a lost completion cannot block an id forever.
type Set struct {
	mu      sync.Mutex
	next    uint64
	entries *cache.Cache
}

// NewSet returns an empty set. ttl <= 0 means entries never expire.
func NewSet(ttl time.Duration) *Set {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	// no janitor: expired entries are ignored on lookup and replaced on Add
	return &Set{entries: cache.New(ttl, 0)}
}

// TryAcquire marks id pending. ok is false if id is already pending.
func (s *Set) TryAcquire(id uint64) (lease Lease, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	lease = Lease{id: id, token: s.next}
	if err := s.entries.Add(key(id), lease.token, cache.DefaultExpiration); err != nil {
		return Lease{}, false
	}
	return lease, true
}

// Release clears the id held by lease. It is a no-op when the entry has expired
// and the id was acquired again since.
func (s *Set) Release(lease Lease) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, found := s.entries.Get(key(lease.id)); found && token == lease.token {
		s.entries.Delete(key(lease.id))
	}
}

// Pending reports whether id is in flight
func (s *Set) Pending(id uint64) bool {
	_, found := s.entries.Get(key(id))
	return found
}

func key(id uint64) string {
	return strconv.FormatUint(id, 10)
}
