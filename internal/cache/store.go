// Package cache provides an in-memory TTL cache for market data and
// computed analytics. All state is ephemeral; nothing survives a restart.
//
// The store is constructed once per process and injected into every
// consumer, so tests can use an isolated instance instead of sharing
// process-wide state.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// entry pairs a stored value with the moment it was written.
// Freshness is decided at read time against the caller's TTL;
// expired entries are not purged on read, only by Purge().
type entry struct {
	value    interface{}
	storedAt time.Time
}

// Store is an in-memory key/value cache with read-time TTL checks.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	// now is swappable in tests to control freshness decisions.
	now func() time.Time
}

// NewStore creates an empty cache store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key if it was stored less than ttl ago.
// A read at or past the TTL is a miss; the stale entry is left in place
// for Purge to collect.
func (s *Store) Get(key string, ttl time.Duration) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if s.now().Sub(e.storedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the current timestamp, replacing any
// previous entry.
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, storedAt: s.now()}
	s.mu.Unlock()
}

// Delete removes a single entry.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Purge removes every entry older than maxAge and returns the number
// removed. Scheduled periodically; the store never evicts inline.
func (s *Store) Purge(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.storedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, fresh or stale.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Key builds a deterministic cache key from a category and its parts.
func Key(category string, parts ...string) string {
	return category + ":" + strings.Join(parts, ":")
}

// SymbolsKey builds a canonical cache key for a multi-symbol request.
// Symbols are sorted so the key is independent of input ordering.
func SymbolsKey(category string, symbols []string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)
	return category + ":" + strings.Join(sorted, ",")
}
