package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetMiss(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("missing", time.Minute)
	assert.False(t, ok)
}

func TestStoreSetGet(t *testing.T) {
	s := NewStore()

	s.Set("quote:AAPL", 123.45)

	v, ok := s.Get("quote:AAPL", time.Minute)
	require.True(t, ok)
	assert.Equal(t, 123.45, v)
}

func TestStoreTTLBoundary(t *testing.T) {
	s := NewStore()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	s.Set("quote:AAPL", 100.0)

	// Just before the TTL boundary the entry is still fresh.
	now = base.Add(30*time.Second - time.Millisecond)
	_, ok := s.Get("quote:AAPL", 30*time.Second)
	assert.True(t, ok)

	// At exactly the TTL boundary the read is a miss.
	now = base.Add(30 * time.Second)
	_, ok = s.Get("quote:AAPL", 30*time.Second)
	assert.False(t, ok)
}

func TestStorePerReaderTTL(t *testing.T) {
	s := NewStore()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	s.Set("profile:AAPL", "Technology")
	now = base.Add(2 * time.Hour)

	// The same entry is stale for a 1h reader but fresh for a 7d reader.
	_, ok := s.Get("profile:AAPL", time.Hour)
	assert.False(t, ok)

	_, ok = s.Get("profile:AAPL", 7*24*time.Hour)
	assert.True(t, ok)
}

func TestStoreExpiredReadLeavesEntry(t *testing.T) {
	s := NewStore()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	s.Set("quote:AAPL", 100.0)
	now = base.Add(time.Hour)

	_, ok := s.Get("quote:AAPL", time.Minute)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len(), "a miss must not purge the entry")
}

func TestStorePurge(t *testing.T) {
	s := NewStore()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	s.Set("old", 1)
	now = base.Add(10 * 24 * time.Hour)
	s.Set("fresh", 2)

	removed := s.Purge(PurgeMaxAge)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get("fresh", time.Minute)
	assert.True(t, ok)
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()

	s.Set("k", 1)
	s.Delete("k")

	_, ok := s.Get("k", time.Minute)
	assert.False(t, ok)
}

func TestSymbolsKeyCanonical(t *testing.T) {
	a := SymbolsKey("analytics", []string{"MSFT", "AAPL", "VTI"})
	b := SymbolsKey("analytics", []string{"VTI", "AAPL", "MSFT"})

	assert.Equal(t, a, b)
	assert.Equal(t, "analytics:AAPL,MSFT,VTI", a)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "chart:AAPL:2024-01-01", Key("chart", "AAPL", "2024-01-01"))
}
