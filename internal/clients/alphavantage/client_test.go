package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolabs/folio/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", zerolog.Nop())
	c.SetBaseURL(srv.URL)
	return c
}

func TestGetGlobalQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "SHEL.L", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"Global Quote":{
			"01. symbol":"SHEL.L",
			"02. open":"2705.00",
			"03. high":"2730.50",
			"04. low":"2698.00",
			"05. price":"2720.50",
			"08. previous close":"2700.00",
			"09. change":"20.50",
			"10. change percent":"0.7593%"}}`))
	})

	q, err := c.GetGlobalQuote(context.Background(), "SHEL.L")
	require.NoError(t, err)
	assert.Equal(t, 2720.50, q.Price)
	assert.Equal(t, 2700.00, q.PreviousClose)
	assert.InDelta(t, 0.7593, q.ChangePercent, 1e-9)
}

func TestGetGlobalQuoteUnknownSymbol(t *testing.T) {
	// Unknown symbols come back as an empty quote object with status 200.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote":{}}`))
	})

	_, err := c.GetGlobalQuote(context.Background(), "NOPE.L")
	assert.ErrorIs(t, err, upstream.ErrInvalidSymbol)
}

func TestGetOverview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OVERVIEW", r.URL.Query().Get("function"))
		w.Write([]byte(`{
			"Symbol":"IBM",
			"AssetType":"Common Stock",
			"Name":"International Business Machines",
			"Sector":"TECHNOLOGY",
			"Beta":"0.7",
			"DividendPerShare":"6.64",
			"DividendYield":"0.0384",
			"ExDividendDate":"2024-08-09",
			"DividendDate":"2024-09-10",
			"AnalystTargetPrice":"181.5"}`))
	})

	o, err := c.GetOverview(context.Background(), "IBM")
	require.NoError(t, err)
	assert.Equal(t, "TECHNOLOGY", o.Sector)
	assert.Equal(t, 0.7, o.Beta)
	assert.Equal(t, 6.64, o.DividendPerShare)
	assert.Equal(t, "2024-08-09", o.ExDividendDate)
	assert.Equal(t, 181.5, o.AnalystTargetPrice)
}

func TestGetOverviewNoneFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Symbol":"GROW",
			"AssetType":"Common Stock",
			"Sector":"None",
			"Beta":"None",
			"DividendPerShare":"None",
			"ExDividendDate":"None",
			"AnalystTargetPrice":"None"}`))
	})

	o, err := c.GetOverview(context.Background(), "GROW")
	require.NoError(t, err)
	assert.Zero(t, o.Beta)
	assert.Zero(t, o.DividendPerShare)
	assert.Empty(t, o.ExDividendDate)
	assert.Zero(t, o.AnalystTargetPrice)
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient("", zerolog.Nop())

	_, err := c.GetOverview(context.Background(), "IBM")
	assert.ErrorIs(t, err, upstream.ErrMissingAPIKey)
}

func TestRateLimiting(t *testing.T) {
	c := NewClient("test-key", zerolog.Nop())

	for i := 0; i < dailyLimit; i++ {
		assert.Equal(t, dailyLimit-i, c.RemainingRequests())
		require.NoError(t, c.checkRateLimit())
	}

	err := c.checkRateLimit()
	assert.IsType(t, ErrRateLimitExceeded{}, err)
	assert.Equal(t, 0, c.RemainingRequests())
}

func TestCheckAPIError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"rate limit note", `{"Note": "API call frequency is limited"}`, ErrRateLimitExceeded{}},
		{"thank you page", `Thank you for using Alpha Vantage!`, ErrRateLimitExceeded{}},
		{"error message", `{"Error Message": "Invalid API call"}`, upstream.ErrInvalidSymbol},
		{"valid response", `{"Symbol": "IBM"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkAPIError([]byte(tt.body))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantErr, err)
			}
		})
	}
}

func TestNextMidnightUTC(t *testing.T) {
	midnight := nextMidnightUTC()

	now := time.Now().UTC()
	assert.True(t, midnight.After(now))
	assert.Equal(t, 0, midnight.Hour())
	assert.Equal(t, 0, midnight.Minute())
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"123.45", 123.45},
		{"0", 0},
		{"None", 0},
		{"", 0},
		{"null", 0},
		{"-", 0},
		{"50.5%", 50.5},
		{"invalid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseFloat(tt.input))
		})
	}
}
