// Package marketdata is the caching/deduplication layer over the
// upstream market-data providers. Every adapter follows the same
// sequence: check cache, dedupe the fetch through the in-flight
// coordinator, cache on success. Failure policy is adapter-specific;
// adapters consumed by the analytics engine degrade to safe fallback
// values instead of returning errors.
package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliolabs/folio/internal/cache"
	"github.com/foliolabs/folio/internal/clients/finnhub"
	"github.com/foliolabs/folio/internal/flight"
)

const (
	// Reporting currency for all normalized quotes.
	reportingCurrency = "USD"

	// LSE listings carry a .L suffix and are quoted in pence (GBX).
	regionalSuffix   = ".L"
	regionalCurrency = "GBP"
	penceFactor      = 100

	// Used when the forex adapter cannot produce a GBP->USD rate.
	fallbackGBPUSD = 1.27
)

// Service exposes the market-data adapters. It owns no upstream state;
// the cache store and in-flight group are injected so tests can isolate
// them per instance.
type Service struct {
	store     *cache.Store
	flights   *flight.Group
	primary   PrimaryProvider
	secondary SecondaryProvider
	forex     ForexProvider
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates the adapter layer over the given providers.
func NewService(
	store *cache.Store,
	primary PrimaryProvider,
	secondary SecondaryProvider,
	forex ForexProvider,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:     store,
		flights:   flight.NewGroup(),
		primary:   primary,
		secondary: secondary,
		forex:     forex,
		log:       log.With().Str("service", "marketdata").Logger(),
		now:       time.Now,
	}
}

// isRegional reports whether a symbol is listed on the regional exchange
// served by the secondary provider.
func isRegional(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(symbol), regionalSuffix)
}

// GetQuote returns the current quote for a symbol in the reporting
// currency. Standard-market symbols use the primary provider; regional
// listings are redirected to the secondary provider and converted.
//
// This is the one adapter whose errors propagate to the caller: a direct
// quote request has no meaningful fallback value.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	key := cache.Key("quote", symbol)
	if v, ok := s.store.Get(key, cache.TTLQuote); ok {
		return v.(*Quote), nil
	}

	v, err := s.flights.Do(key, func() (interface{}, error) {
		var q *Quote
		var err error
		if isRegional(symbol) {
			q, err = s.fetchRegionalQuote(ctx, symbol)
		} else {
			q, err = s.fetchStandardQuote(ctx, symbol)
		}
		if err != nil {
			return nil, err
		}
		s.store.Set(key, q)
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Quote), nil
}

func (s *Service) fetchStandardQuote(ctx context.Context, symbol string) (*Quote, error) {
	fq, err := s.primary.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return convertQuote(symbol, fq), nil
}

// fetchRegionalQuote fetches an LSE quote from the secondary provider.
// Prices arrive in pence; divide by 100 for GBP, then convert to the
// reporting currency using the cached forex rate.
func (s *Service) fetchRegionalQuote(ctx context.Context, symbol string) (*Quote, error) {
	gq, err := s.secondary.GetGlobalQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	rate := s.GetForexRate(ctx)
	toUSD := func(pence float64) float64 {
		return pence / penceFactor * rate
	}

	return &Quote{
		Symbol:        symbol,
		Price:         toUSD(gq.Price),
		Change:        toUSD(gq.Change),
		PercentChange: gq.ChangePercent,
		Open:          toUSD(gq.Open),
		High:          toUSD(gq.High),
		Low:           toUSD(gq.Low),
		PreviousClose: toUSD(gq.PreviousClose),
	}, nil
}

// GetBatchQuotes returns quotes for a symbol list. Symbols already
// cached are served immediately; the remainder is fetched with exactly
// one upstream batch call, and each returned quote is cached
// individually. Regional listings are resolved one by one since the
// primary provider does not carry them.
func (s *Service) GetBatchQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	quotes := make(map[string]*Quote, len(symbols))

	var standard, regional []string
	for _, symbol := range symbols {
		if v, ok := s.store.Get(cache.Key("quote", symbol), cache.TTLQuote); ok {
			quotes[symbol] = v.(*Quote)
			continue
		}
		if isRegional(symbol) {
			regional = append(regional, symbol)
		} else {
			standard = append(standard, symbol)
		}
	}

	if len(standard) > 0 {
		batchKey := cache.SymbolsKey("batch-quote", standard)
		v, err := s.flights.Do(batchKey, func() (interface{}, error) {
			fetched, err := s.primary.GetQuotes(ctx, standard)
			if err != nil {
				return nil, err
			}
			converted := make(map[string]*Quote, len(fetched))
			for symbol, fq := range fetched {
				q := convertQuote(symbol, fq)
				s.store.Set(cache.Key("quote", symbol), q)
				converted[symbol] = q
			}
			return converted, nil
		})
		if err != nil {
			return quotes, fmt.Errorf("batch quote fetch failed: %w", err)
		}
		for symbol, q := range v.(map[string]*Quote) {
			quotes[symbol] = q
		}
	}

	for _, symbol := range regional {
		q, err := s.GetQuote(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Regional quote failed in batch")
			continue
		}
		quotes[symbol] = q
	}

	return quotes, nil
}

// GetForexRate returns the GBP->USD conversion rate, cached for six
// hours. A fetch failure yields the fixed fallback rate and is not
// cached, so the next call retries.
func (s *Service) GetForexRate(ctx context.Context) float64 {
	key := cache.Key("forex", regionalCurrency, reportingCurrency)
	if v, ok := s.store.Get(key, cache.TTLForex); ok {
		return v.(float64)
	}

	v, err := s.flights.Do(key, func() (interface{}, error) {
		rate, err := s.forex.GetRate(ctx, regionalCurrency, reportingCurrency)
		if err != nil {
			return nil, err
		}
		s.store.Set(key, rate)
		return rate, nil
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Forex fetch failed, using fallback rate")
		return fallbackGBPUSD
	}
	return v.(float64)
}

// SearchSymbols looks up symbols matching a free-text query.
func (s *Service) SearchSymbols(ctx context.Context, query string) ([]SearchMatch, error) {
	key := cache.Key("search", strings.ToLower(query))
	if v, ok := s.store.Get(key, cache.TTLSearch); ok {
		return v.([]SearchMatch), nil
	}

	v, err := s.flights.Do(key, func() (interface{}, error) {
		res, err := s.primary.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		matches := make([]SearchMatch, 0, len(res.Result))
		for _, r := range res.Result {
			matches = append(matches, SearchMatch{
				Symbol:      r.Symbol,
				Description: r.Description,
				Type:        r.Type,
			})
		}
		s.store.Set(key, matches)
		return matches, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]SearchMatch), nil
}

// GetCompanyNews returns the last week of news for a symbol.
func (s *Service) GetCompanyNews(ctx context.Context, symbol string) ([]NewsItem, error) {
	key := cache.Key("company-news", symbol)
	if v, ok := s.store.Get(key, cache.TTLCompanyNews); ok {
		return v.([]NewsItem), nil
	}

	v, err := s.flights.Do(key, func() (interface{}, error) {
		to := s.now()
		from := to.AddDate(0, 0, -7)
		items, err := s.primary.GetCompanyNews(ctx, symbol,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		news := convertNews(items)
		s.store.Set(key, news)
		return news, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]NewsItem), nil
}

// GetMarketNews returns general market news.
func (s *Service) GetMarketNews(ctx context.Context) ([]NewsItem, error) {
	key := cache.Key("market-news")
	if v, ok := s.store.Get(key, cache.TTLMarketNews); ok {
		return v.([]NewsItem), nil
	}

	v, err := s.flights.Do(key, func() (interface{}, error) {
		items, err := s.primary.GetMarketNews(ctx)
		if err != nil {
			return nil, err
		}
		news := convertNews(items)
		s.store.Set(key, news)
		return news, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]NewsItem), nil
}

func convertQuote(symbol string, fq *finnhub.Quote) *Quote {
	return &Quote{
		Symbol:        symbol,
		Price:         fq.Current,
		Change:        fq.Change,
		PercentChange: fq.PercentChange,
		Open:          fq.Open,
		High:          fq.High,
		Low:           fq.Low,
		PreviousClose: fq.PreviousClose,
	}
}

func convertNews(items []finnhub.NewsItem) []NewsItem {
	news := make([]NewsItem, 0, len(items))
	for _, item := range items {
		news = append(news, NewsItem{
			ID:       item.ID,
			Datetime: item.Datetime,
			Headline: item.Headline,
			Summary:  item.Summary,
			Source:   item.Source,
			URL:      item.URL,
			Image:    item.Image,
			Related:  item.Related,
		})
	}
	return news
}
