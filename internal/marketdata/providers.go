package marketdata

import (
	"context"

	"github.com/foliolabs/folio/internal/clients/alphavantage"
	"github.com/foliolabs/folio/internal/clients/finnhub"
)

// PrimaryProvider is the interface the service needs from the primary
// market-data client (Finnhub). Declared here so tests can substitute
// stubs and count upstream calls.
type PrimaryProvider interface {
	GetQuote(ctx context.Context, symbol string) (*finnhub.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]*finnhub.Quote, error)
	GetCandles(ctx context.Context, symbol string, from, to int64) (*finnhub.Candles, error)
	GetProfile(ctx context.Context, symbol string) (*finnhub.Profile, error)
	GetRecommendations(ctx context.Context, symbol string) ([]finnhub.RecommendationTrend, error)
	GetPriceTarget(ctx context.Context, symbol string) (*finnhub.PriceTarget, error)
	GetMetrics(ctx context.Context, symbol string) (*finnhub.Metrics, error)
	GetCompanyNews(ctx context.Context, symbol, from, to string) ([]finnhub.NewsItem, error)
	GetMarketNews(ctx context.Context) ([]finnhub.NewsItem, error)
	Search(ctx context.Context, query string) (*finnhub.SearchResult, error)
}

// SecondaryProvider is the fallback fundamentals/regional-quote client
// (Alpha Vantage).
type SecondaryProvider interface {
	GetGlobalQuote(ctx context.Context, symbol string) (*alphavantage.GlobalQuote, error)
	GetOverview(ctx context.Context, symbol string) (*alphavantage.Overview, error)
}

// ForexProvider supplies currency conversion rates.
type ForexProvider interface {
	GetRate(ctx context.Context, from, to string) (float64, error)
}

var (
	_ PrimaryProvider   = (*finnhub.Client)(nil)
	_ SecondaryProvider = (*alphavantage.Client)(nil)
)
