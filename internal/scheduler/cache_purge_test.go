package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolabs/folio/internal/cache"
)

func TestCachePurgeJob(t *testing.T) {
	store := cache.NewStore()
	store.Set(cache.Key("quote", "AAPL"), 1)

	job := NewCachePurgeJob(store, zerolog.Nop())
	assert.Equal(t, "cache_purge", job.Name())

	// Fresh entries survive a purge.
	require.NoError(t, job.Run())
	assert.Equal(t, 1, store.Len())
}

func TestSchedulerRunNow(t *testing.T) {
	store := cache.NewStore()
	s := New(zerolog.Nop())

	require.NoError(t, s.RunNow(NewCachePurgeJob(store, zerolog.Nop())))
}

func TestSchedulerAddJobValidatesSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := NewCachePurgeJob(cache.NewStore(), zerolog.Nop())

	assert.Error(t, s.AddJob("not a schedule", job))
	assert.NoError(t, s.AddJob("@hourly", job))
}
