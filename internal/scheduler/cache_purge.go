package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/foliolabs/folio/internal/cache"
)

// CachePurgeJob drops cache entries old enough that no reader's TTL can
// still accept them. TTL expiry already makes stale entries invisible;
// this job reclaims the memory they occupy.
type CachePurgeJob struct {
	store *cache.Store
	log   zerolog.Logger
}

// NewCachePurgeJob creates the purge job.
func NewCachePurgeJob(store *cache.Store, log zerolog.Logger) *CachePurgeJob {
	return &CachePurgeJob{
		store: store,
		log:   log.With().Str("job", "cache_purge").Logger(),
	}
}

// Name implements Job.
func (j *CachePurgeJob) Name() string { return "cache_purge" }

// Run implements Job.
func (j *CachePurgeJob) Run() error {
	removed := j.store.Purge(cache.PurgeMaxAge)
	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("Purged expired cache entries")
	}
	return nil
}
