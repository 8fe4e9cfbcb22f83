package cache

import "time"

// TTL constants per data category. The TTL is supplied by the reader,
// not stored with the entry, so one entry can serve callers with
// different freshness requirements.
const (
	// Fast-moving data
	TTLQuote         = 30 * time.Second // Real-time quotes
	TTLExtendedQuote = 30 * time.Second // Quotes with day range / previous close

	// News feeds
	TTLCompanyNews = 5 * time.Minute
	TTLMarketNews  = 5 * time.Minute

	// Slow-moving reference data
	TTLForex       = 6 * time.Hour      // Currency exchange rates
	TTLSearch      = time.Hour          // Symbol search results
	TTLAnalystRecs = time.Hour          // Analyst recommendation trends
	TTLChart       = time.Hour          // Historical daily close series
	TTLPriceTarget = 24 * time.Hour     // Analyst price targets
	TTLProfile     = 7 * 24 * time.Hour // Company profiles (sector, beta)
	TTLDividend    = 24 * time.Hour     // Dividend calendar data

	// Computed results
	TTLAnalytics = time.Hour // Full portfolio analytics result

	// PurgeMaxAge is the age past which the scheduled purge job drops
	// entries. Longer than every read TTL above, so a purge never races
	// a fresh read.
	PurgeMaxAge = 8 * 24 * time.Hour
)
