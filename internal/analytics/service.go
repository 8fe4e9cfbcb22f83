// Package analytics is the portfolio analytics engine: cost-basis
// reconstruction, the benchmark/TWR series, health scoring, pairwise
// correlations and dividend forecasting, assembled from market-data
// adapter calls that are fanned out together and individually bounded
// so one slow upstream degrades a metric instead of the whole result.
package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliolabs/folio/internal/cache"
	"github.com/foliolabs/folio/internal/holdings"
	"github.com/foliolabs/folio/internal/marketdata"
)

// adapterTimeout bounds every adapter call in the analytics fan-out.
const adapterTimeout = 8 * time.Second

// Market is what the engine needs from the market-data layer. The
// concrete service satisfies it; tests substitute stubs.
type Market interface {
	GetBatchQuotes(ctx context.Context, symbols []string) (map[string]*marketdata.Quote, error)
	GetProfile(ctx context.Context, symbol string) *marketdata.Profile
	GetRecommendations(ctx context.Context, symbol string) []marketdata.RecommendationTrend
	GetDividend(ctx context.Context, symbol string) *marketdata.DividendInfo
	GetChart(ctx context.Context, symbol string, startDate time.Time) *marketdata.ChartSeries
}

var _ Market = (*marketdata.Service)(nil)

// Result is the complete analytics output. A failed computation yields
// a zeroed Result with Error set; callers always receive a well-formed
// value, never an error, from ComputePortfolioAnalytics.
type Result struct {
	HealthScore   int                `json:"healthScore"`
	Components    HealthComponents   `json:"components"`
	PortfolioBeta float64            `json:"portfolioBeta"`
	MaxSectorPct  float64            `json:"maxSectorPct"`
	BenchmarkData []BenchmarkPoint   `json:"benchmarkData"`
	Dividends     []DividendForecast `json:"dividends"`
	Correlations  CorrelationMatrix  `json:"correlationMatrix"`
	Error         string             `json:"error,omitempty"`
}

// Service is the analytics engine. Stateless across restarts; the only
// state is the injected cache store.
type Service struct {
	store           *cache.Store
	market          Market
	benchmarkSymbol string
	log             zerolog.Logger
	now             func() time.Time
	timeout         time.Duration
}

// NewService creates the engine. benchmarkSymbol is the reference index
// for the TWR comparison, typically an S&P 500 proxy.
func NewService(store *cache.Store, market Market, benchmarkSymbol string, log zerolog.Logger) *Service {
	return &Service{
		store:           store,
		market:          market,
		benchmarkSymbol: benchmarkSymbol,
		log:             log.With().Str("service", "analytics").Logger(),
		now:             time.Now,
		timeout:         adapterTimeout,
	}
}

// ComputePortfolioAnalytics produces the full analytics result for a
// holdings snapshot. Results are cached for an hour under a key derived
// from the sorted symbol set and holding count; a failed computation
// returns a zeroed result with the error string and is not cached, so
// transient failures self-heal on the next request.
func (s *Service) ComputePortfolioAnalytics(ctx context.Context, list []holdings.Holding) *Result {
	key := fmt.Sprintf("%s:n=%d", cache.SymbolsKey("analytics", holdings.Symbols(list)), len(list))
	if v, ok := s.store.Get(key, cache.TTLAnalytics); ok {
		return v.(*Result)
	}

	started := s.now()
	res, err := s.computeSafe(ctx, list)
	if err != nil {
		s.log.Error().Err(err).Int("holdings", len(list)).Msg("Analytics computation failed")
		return &Result{
			BenchmarkData: []BenchmarkPoint{},
			Dividends:     []DividendForecast{},
			Error:         err.Error(),
		}
	}

	s.store.Set(key, res)
	s.log.Info().
		Int("holdings", len(list)).
		Dur("elapsed", s.now().Sub(started)).
		Int("health_score", res.HealthScore).
		Msg("Analytics computed")
	return res
}

// computeSafe converts a panic anywhere in the computation into an
// error so the entry point can degrade instead of crashing.
func (s *Service) computeSafe(ctx context.Context, list []holdings.Holding) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analytics computation panicked: %v", r)
		}
	}()
	return s.compute(ctx, list), nil
}

// symbolData is the per-symbol fan-out harvest.
type symbolData struct {
	chart    *marketdata.ChartSeries
	profile  *marketdata.Profile
	recs     []marketdata.RecommendationTrend
	dividend *marketdata.DividendInfo
}

func (s *Service) compute(ctx context.Context, list []holdings.Holding) *Result {
	now := s.now()
	cb := ReconstructCostBasis(list, now)
	symbols := uniqueSymbols(list)

	// The benchmark window always reaches back at least a year so the
	// index line has context even for young portfolios.
	fetchStart := now.AddDate(-1, 0, 0)
	if cb.Inception.Before(fetchStart) {
		fetchStart = cb.Inception
	}

	// Fan out every adapter call at once, each independently bounded.
	// Each goroutine writes exactly one field of one symbolData, read
	// only after the join.
	var (
		wg         sync.WaitGroup
		quotes     map[string]*marketdata.Quote
		indexChart *marketdata.ChartSeries
		perSymbol  = make(map[string]*symbolData, len(symbols))
	)
	for _, symbol := range symbols {
		perSymbol[symbol] = &symbolData{}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		quotes = marketdata.RunBounded(ctx, s.timeout, map[string]*marketdata.Quote{},
			func(ctx context.Context) map[string]*marketdata.Quote {
				q, err := s.market.GetBatchQuotes(ctx, symbols)
				if err != nil {
					s.log.Warn().Err(err).Msg("Batch quotes failed in analytics fan-out")
					return map[string]*marketdata.Quote{}
				}
				return q
			})
	}()
	go func() {
		defer wg.Done()
		indexChart = marketdata.RunBounded(ctx, s.timeout,
			&marketdata.ChartSeries{Symbol: s.benchmarkSymbol},
			func(ctx context.Context) *marketdata.ChartSeries {
				return s.market.GetChart(ctx, s.benchmarkSymbol, fetchStart)
			})
	}()

	for _, symbol := range symbols {
		data := perSymbol[symbol]

		wg.Add(4)
		go func(symbol string) {
			defer wg.Done()
			data.chart = marketdata.RunBounded(ctx, s.timeout,
				&marketdata.ChartSeries{Symbol: symbol},
				func(ctx context.Context) *marketdata.ChartSeries {
					return s.market.GetChart(ctx, symbol, fetchStart)
				})
		}(symbol)
		go func(symbol string) {
			defer wg.Done()
			data.profile = marketdata.RunBounded(ctx, s.timeout,
				&marketdata.Profile{Symbol: symbol, Sector: "Unknown", Beta: 1.0},
				func(ctx context.Context) *marketdata.Profile {
					return s.market.GetProfile(ctx, symbol)
				})
		}(symbol)
		go func(symbol string) {
			defer wg.Done()
			data.recs = marketdata.RunBounded(ctx, s.timeout,
				[]marketdata.RecommendationTrend(nil),
				func(ctx context.Context) []marketdata.RecommendationTrend {
					return s.market.GetRecommendations(ctx, symbol)
				})
		}(symbol)
		go func(symbol string) {
			defer wg.Done()
			data.dividend = marketdata.RunBounded(ctx, s.timeout,
				(*marketdata.DividendInfo)(nil),
				func(ctx context.Context) *marketdata.DividendInfo {
					return s.market.GetDividend(ctx, symbol)
				})
		}(symbol)
	}
	wg.Wait()

	charts := make(map[string]*marketdata.ChartSeries, len(symbols))
	profiles := make(map[string]*marketdata.Profile, len(symbols))
	recs := make(map[string][]marketdata.RecommendationTrend, len(symbols))
	dividends := make(map[string]*marketdata.DividendInfo, len(symbols))
	for symbol, data := range perSymbol {
		charts[symbol] = data.chart
		profiles[symbol] = data.profile
		recs[symbol] = data.recs
		dividends[symbol] = data.dividend
	}

	values := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if q := quotes[symbol]; q != nil {
			values[symbol] = cb.Quantities[symbol] * q.Price
		} else {
			values[symbol] = 0
		}
	}

	health := ComputeHealth(values, profiles, recs)

	return &Result{
		HealthScore:   health.Score,
		Components:    health.Components,
		PortfolioBeta: health.PortfolioBeta,
		MaxSectorPct:  health.MaxSectorPct,
		BenchmarkData: BuildBenchmark(indexChart, charts, cb.Events, cb.Inception.Format(isoDate)),
		Dividends:     EstimateDividends(dividends, cb.Quantities, now),
		Correlations:  ComputeCorrelations(symbols, charts),
	}
}

// uniqueSymbols returns the distinct symbols in holding order.
func uniqueSymbols(list []holdings.Holding) []string {
	seen := make(map[string]struct{}, len(list))
	symbols := make([]string, 0, len(list))
	for _, h := range list {
		if _, ok := seen[h.Symbol]; ok {
			continue
		}
		seen[h.Symbol] = struct{}{}
		symbols = append(symbols, h.Symbol)
	}
	return symbols
}
