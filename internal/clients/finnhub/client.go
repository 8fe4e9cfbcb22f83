// Package finnhub provides the primary market-data provider client.
// It covers quotes, daily candles, company profiles, analyst
// recommendations, price targets, basic financials, news and symbol
// search. Responses are decoded into typed structs and validated;
// shapes that indicate an unknown symbol map to upstream.ErrInvalidSymbol.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliolabs/folio/internal/upstream"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// Client for the Finnhub REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a Finnhub client. An empty apiKey is allowed at
// construction; calls made without one fail with upstream.ErrMissingAPIKey.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "finnhub").Logger(),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Quote is the real-time quote response.
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Candles is the daily candle response. Status "no_data" means the
// symbol has no candles in the requested window.
type Candles struct {
	Closes     []float64 `json:"c"`
	Timestamps []int64   `json:"t"`
	Status     string    `json:"s"`
}

// Profile is the company profile response.
type Profile struct {
	Name      string  `json:"name"`
	Ticker    string  `json:"ticker"`
	Exchange  string  `json:"exchange"`
	Currency  string  `json:"currency"`
	Industry  string  `json:"finnhubIndustry"`
	Country   string  `json:"country"`
	MarketCap float64 `json:"marketCapitalization"`
	SharesOut float64 `json:"shareOutstanding"`
	IPO       string  `json:"ipo"`
	WebURL    string  `json:"weburl"`
	Logo      string  `json:"logo"`
}

// RecommendationTrend is one month of analyst ratings for a symbol.
type RecommendationTrend struct {
	Symbol     string `json:"symbol"`
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// PriceTarget is the analyst price target response.
type PriceTarget struct {
	Symbol       string  `json:"symbol"`
	TargetHigh   float64 `json:"targetHigh"`
	TargetLow    float64 `json:"targetLow"`
	TargetMean   float64 `json:"targetMean"`
	TargetMedian float64 `json:"targetMedian"`
	LastUpdated  string  `json:"lastUpdated"`
}

// Metrics is the basic financials response, reduced to the fields the
// engine consumes.
type Metrics struct {
	Metric struct {
		Beta                   float64 `json:"beta"`
		DividendPerShareAnnual float64 `json:"dividendPerShareAnnual"`
		DividendYieldTTM       float64 `json:"currentDividendYieldTTM"`
	} `json:"metric"`
}

// NewsItem is one article from company or market news.
type NewsItem struct {
	ID       int64  `json:"id"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Category string `json:"category"`
}

// SearchResult is the symbol search response.
type SearchResult struct {
	Count  int `json:"count"`
	Result []struct {
		Symbol        string `json:"symbol"`
		DisplaySymbol string `json:"displaySymbol"`
		Description   string `json:"description"`
		Type          string `json:"type"`
	} `json:"result"`
}

// GetQuote fetches the real-time quote for a symbol.
// A response with no price and no timestamp means the symbol is unknown.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, &q); err != nil {
		return nil, err
	}
	if q.Current == 0 && q.PreviousClose == 0 && q.Timestamp == 0 {
		return nil, fmt.Errorf("quote for %s: %w", symbol, upstream.ErrInvalidSymbol)
	}
	return &q, nil
}

// GetQuotes fetches quotes for several symbols as one batch request.
// The provider has no bulk endpoint, so the batch fans out internally;
// symbols that fail to resolve are omitted from the result rather than
// failing the batch.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	if c.apiKey == "" {
		return nil, upstream.ErrMissingAPIKey
	}

	type result struct {
		symbol string
		quote  *Quote
	}

	results := make(chan result, len(symbols))
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			q, err := c.GetQuote(ctx, symbol)
			if err != nil {
				c.log.Debug().Err(err).Str("symbol", symbol).Msg("Batch quote member failed")
				results <- result{symbol: symbol}
				return
			}
			results <- result{symbol: symbol, quote: q}
		}(symbol)
	}
	wg.Wait()
	close(results)

	quotes := make(map[string]*Quote, len(symbols))
	for r := range results {
		if r.quote != nil {
			quotes[r.symbol] = r.quote
		}
	}
	return quotes, nil
}

// GetCandles fetches daily candles between from and to (unix seconds).
func (c *Client) GetCandles(ctx context.Context, symbol string, from, to int64) (*Candles, error) {
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {"D"},
		"from":       {fmt.Sprintf("%d", from)},
		"to":         {fmt.Sprintf("%d", to)},
	}
	var candles Candles
	if err := c.get(ctx, "/stock/candle", params, &candles); err != nil {
		return nil, err
	}
	if candles.Status != "ok" {
		return nil, fmt.Errorf("candles for %s: status %q: %w", symbol, candles.Status, upstream.ErrInvalidSymbol)
	}
	if len(candles.Closes) != len(candles.Timestamps) {
		return nil, fmt.Errorf("candles for %s: mismatched arrays: %w", symbol, upstream.ErrInvalidSymbol)
	}
	return &candles, nil
}

// GetProfile fetches the company profile for a symbol.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetRecommendations fetches analyst recommendation trends, most recent
// period first.
func (c *Client) GetRecommendations(ctx context.Context, symbol string) ([]RecommendationTrend, error) {
	var trends []RecommendationTrend
	if err := c.get(ctx, "/stock/recommendation", url.Values{"symbol": {symbol}}, &trends); err != nil {
		return nil, err
	}
	return trends, nil
}

// GetPriceTarget fetches the analyst price target for a symbol.
func (c *Client) GetPriceTarget(ctx context.Context, symbol string) (*PriceTarget, error) {
	var pt PriceTarget
	if err := c.get(ctx, "/stock/price-target", url.Values{"symbol": {symbol}}, &pt); err != nil {
		return nil, err
	}
	return &pt, nil
}

// GetMetrics fetches basic financials (beta, dividend rate) for a symbol.
func (c *Client) GetMetrics(ctx context.Context, symbol string) (*Metrics, error) {
	params := url.Values{"symbol": {symbol}, "metric": {"all"}}
	var m Metrics
	if err := c.get(ctx, "/stock/metric", params, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetCompanyNews fetches news for a symbol between two ISO dates.
func (c *Client) GetCompanyNews(ctx context.Context, symbol, from, to string) ([]NewsItem, error) {
	params := url.Values{"symbol": {symbol}, "from": {from}, "to": {to}}
	var items []NewsItem
	if err := c.get(ctx, "/company-news", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetMarketNews fetches general market news.
func (c *Client) GetMarketNews(ctx context.Context) ([]NewsItem, error) {
	var items []NewsItem
	if err := c.get(ctx, "/news", url.Values{"category": {"general"}}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search looks up symbols matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	var res SearchResult
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.apiKey == "" {
		return upstream.ErrMissingAPIKey
	}

	params.Set("token", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("Non-OK response")
		return &upstream.HTTPError{Provider: "finnhub", Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
