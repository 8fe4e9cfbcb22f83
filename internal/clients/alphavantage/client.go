// Package alphavantage provides the secondary market-data provider
// client. It serves two fallback roles: quotes for regional-exchange
// listings the primary provider does not cover, and company overview
// fundamentals (analyst target price, dividend calendar, sector, beta)
// when the primary returns nothing usable.
//
// Alpha Vantage encodes every numeric field as a string ("None" when
// absent), so all parsing happens here and the rest of the system only
// sees typed values. The free tier allows 25 requests per day; the
// client tracks usage and refuses to exceed it.
package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliolabs/folio/internal/upstream"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"
	dailyLimit     = 25
)

// ErrRateLimitExceeded is returned when the daily request budget is spent.
type ErrRateLimitExceeded struct{}

func (ErrRateLimitExceeded) Error() string {
	return "alphavantage daily rate limit exceeded"
}

// Client for the Alpha Vantage REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger

	mu           sync.Mutex
	requestCount int
	counterReset time.Time
}

// NewClient creates an Alpha Vantage client.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: 10 * time.Second},
		log:          log.With().Str("client", "alphavantage").Logger(),
		counterReset: nextMidnightUTC(),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// GlobalQuote is a parsed GLOBAL_QUOTE response.
type GlobalQuote struct {
	Symbol        string
	Open          float64
	High          float64
	Low           float64
	Price         float64
	PreviousClose float64
	Change        float64
	ChangePercent float64
}

// Overview is a parsed company OVERVIEW response. Zero values mean the
// field was absent or "None".
type Overview struct {
	Symbol             string
	AssetType          string
	Name               string
	Sector             string
	Beta               float64
	DividendPerShare   float64
	DividendYield      float64
	ExDividendDate     string
	DividendDate       string
	AnalystTargetPrice float64
}

// rawGlobalQuote mirrors the provider's stringly-typed wire shape.
type rawGlobalQuote struct {
	Quote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		PreviousClose string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

type rawOverview struct {
	Symbol             string `json:"Symbol"`
	AssetType          string `json:"AssetType"`
	Name               string `json:"Name"`
	Sector             string `json:"Sector"`
	Beta               string `json:"Beta"`
	DividendPerShare   string `json:"DividendPerShare"`
	DividendYield      string `json:"DividendYield"`
	ExDividendDate     string `json:"ExDividendDate"`
	DividendDate       string `json:"DividendDate"`
	AnalystTargetPrice string `json:"AnalystTargetPrice"`
}

// GetGlobalQuote fetches the latest quote for a symbol. An empty quote
// block means the symbol is unknown to the provider.
func (c *Client) GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	params := url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}

	var raw rawGlobalQuote
	if err := c.get(ctx, params, &raw); err != nil {
		return nil, err
	}
	if raw.Quote.Symbol == "" {
		return nil, fmt.Errorf("global quote for %s: %w", symbol, upstream.ErrInvalidSymbol)
	}

	return &GlobalQuote{
		Symbol:        raw.Quote.Symbol,
		Open:          parseFloat(raw.Quote.Open),
		High:          parseFloat(raw.Quote.High),
		Low:           parseFloat(raw.Quote.Low),
		Price:         parseFloat(raw.Quote.Price),
		PreviousClose: parseFloat(raw.Quote.PreviousClose),
		Change:        parseFloat(raw.Quote.Change),
		ChangePercent: parseFloat(strings.TrimSuffix(raw.Quote.ChangePercent, "%")),
	}, nil
}

// GetOverview fetches company overview fundamentals for a symbol.
func (c *Client) GetOverview(ctx context.Context, symbol string) (*Overview, error) {
	params := url.Values{"function": {"OVERVIEW"}, "symbol": {symbol}}

	var raw rawOverview
	if err := c.get(ctx, params, &raw); err != nil {
		return nil, err
	}
	if raw.Symbol == "" {
		return nil, fmt.Errorf("overview for %s: %w", symbol, upstream.ErrInvalidSymbol)
	}

	return &Overview{
		Symbol:             raw.Symbol,
		AssetType:          raw.AssetType,
		Name:               raw.Name,
		Sector:             raw.Sector,
		Beta:               parseFloat(raw.Beta),
		DividendPerShare:   parseFloat(raw.DividendPerShare),
		DividendYield:      parseFloat(raw.DividendYield),
		ExDividendDate:     cleanDate(raw.ExDividendDate),
		DividendDate:       cleanDate(raw.DividendDate),
		AnalystTargetPrice: parseFloat(raw.AnalystTargetPrice),
	}, nil
}

// RemainingRequests returns how many requests are left in today's budget.
func (c *Client) RemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetCounter()
	return dailyLimit - c.requestCount
}

// checkRateLimit consumes one request from the daily budget.
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maybeResetCounter()
	if c.requestCount >= dailyLimit {
		return ErrRateLimitExceeded{}
	}
	c.requestCount++
	return nil
}

// maybeResetCounter resets the daily counter after midnight UTC.
// Caller must hold c.mu.
func (c *Client) maybeResetCounter() {
	if time.Now().UTC().After(c.counterReset) {
		c.requestCount = 0
		c.counterReset = nextMidnightUTC()
	}
}

func (c *Client) get(ctx context.Context, params url.Values, out interface{}) error {
	if c.apiKey == "" {
		return upstream.ErrMissingAPIKey
	}
	if err := c.checkRateLimit(); err != nil {
		return err
	}

	params.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "?" + params.Encode()

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
		c.log.Warn().Int("status", resp.StatusCode).Msg("Non-OK response")
		return &upstream.HTTPError{Provider: "alphavantage", Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// The API reports throttling and errors inside 200 responses.
	if err := checkAPIError(body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// checkAPIError detects provider errors delivered with status 200.
func checkAPIError(body []byte) error {
	if bytes.Contains(body, []byte(`"Note"`)) ||
		bytes.Contains(body, []byte("Thank you for using Alpha Vantage")) {
		return ErrRateLimitExceeded{}
	}
	if bytes.Contains(body, []byte(`"Error Message"`)) {
		return upstream.ErrInvalidSymbol
	}
	return nil
}

// nextMidnightUTC returns the next midnight in UTC, when the provider's
// daily quota resets.
func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

// parseFloat converts a provider numeric string to float64.
// "None", "-" and unparseable values become 0.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == "None" || s == "-" || s == "null" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// cleanDate normalizes a provider date string; "None" and "0000-00-00"
// become empty.
func cleanDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "None" || s == "0000-00-00" {
		return ""
	}
	return s
}
