package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliolabs/folio/internal/analytics"
	"github.com/foliolabs/folio/internal/holdings"
	"github.com/foliolabs/folio/internal/marketdata"
	"github.com/foliolabs/folio/internal/upstream"
)

// MarketData is the subset of the market-data service the HTTP layer
// exposes directly.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error)
	GetBatchQuotes(ctx context.Context, symbols []string) (map[string]*marketdata.Quote, error)
	SearchSymbols(ctx context.Context, query string) ([]marketdata.SearchMatch, error)
	GetCompanyNews(ctx context.Context, symbol string) ([]marketdata.NewsItem, error)
	GetMarketNews(ctx context.Context) ([]marketdata.NewsItem, error)
	GetForexRate(ctx context.Context) float64
}

// Engine computes portfolio analytics from a holdings snapshot.
type Engine interface {
	ComputePortfolioAnalytics(ctx context.Context, list []holdings.Holding) *analytics.Result
}

// Store is the holdings persistence surface used by the handlers.
type Store interface {
	Create(h holdings.Holding) (holdings.Holding, error)
	Update(h holdings.Holding) (holdings.Holding, error)
	Delete(id string) error
	Get(id string) (holdings.Holding, error)
	List() ([]holdings.Holding, error)
}

var (
	_ MarketData = (*marketdata.Service)(nil)
	_ Engine     = (*analytics.Service)(nil)
	_ Store      = (*holdings.Repository)(nil)
)

// Handlers serves the portfolio and market-data API.
type Handlers struct {
	store  Store
	market MarketData
	engine Engine
	log    zerolog.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(store Store, market MarketData, engine Engine, log zerolog.Logger) *Handlers {
	return &Handlers{
		store:  store,
		market: market,
		engine: engine,
		log:    log.With().Str("handler", "api").Logger(),
	}
}

// HandleListHoldings returns all holdings.
func (h *Handlers) HandleListHoldings(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []holdings.Holding{}
	}
	h.writeJSON(w, http.StatusOK, list)
}

// HandleCreateHolding creates a holding from the request body.
func (h *Handlers) HandleCreateHolding(w http.ResponseWriter, r *http.Request) {
	var body holdings.Holding
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Symbol) == "" {
		h.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	body.Symbol = strings.ToUpper(strings.TrimSpace(body.Symbol))

	created, err := h.store.Create(body)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateHolding replaces a holding's mutable fields.
func (h *Handlers) HandleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	var body holdings.Holding
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	body.ID = chi.URLParam(r, "id")

	updated, err := h.store.Update(body)
	if errors.Is(err, holdings.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "holding not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteHolding removes a holding.
func (h *Handlers) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	err := h.store.Delete(chi.URLParam(r, "id"))
	if errors.Is(err, holdings.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "holding not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandlePortfolioAnalytics computes analytics over the stored holdings.
// The engine itself never fails; a degraded result carries its error
// string in the payload.
func (h *Handlers) HandlePortfolioAnalytics(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := h.engine.ComputePortfolioAnalytics(r.Context(), list)
	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetQuote returns the quote for one symbol. This is the one
// market-data route whose upstream errors surface to the client.
func (h *Handlers) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	quote, err := h.market.GetQuote(r.Context(), symbol)
	if err != nil {
		h.writeQuoteError(w, symbol, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// HandleGetBatchQuotes returns quotes for ?symbols=A,B,C.
func (h *Handlers) HandleGetBatchQuotes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}

	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}

	quotes, err := h.market.GetBatchQuotes(r.Context(), symbols)
	if err != nil {
		h.log.Warn().Err(err).Msg("Batch quotes partially failed")
	}
	h.writeJSON(w, http.StatusOK, quotes)
}

// HandleSearchSymbols looks up symbols matching ?q=.
func (h *Handlers) HandleSearchSymbols(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	matches, err := h.market.SearchSymbols(r.Context(), query)
	if err != nil {
		h.writeQuoteError(w, query, err)
		return
	}
	if matches == nil {
		matches = []marketdata.SearchMatch{}
	}
	h.writeJSON(w, http.StatusOK, matches)
}

// HandleCompanyNews returns recent news for a symbol.
func (h *Handlers) HandleCompanyNews(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	news, err := h.market.GetCompanyNews(r.Context(), symbol)
	if err != nil {
		h.writeQuoteError(w, symbol, err)
		return
	}
	if news == nil {
		news = []marketdata.NewsItem{}
	}
	h.writeJSON(w, http.StatusOK, news)
}

// HandleMarketNews returns general market news.
func (h *Handlers) HandleMarketNews(w http.ResponseWriter, r *http.Request) {
	news, err := h.market.GetMarketNews(r.Context())
	if err != nil {
		h.writeQuoteError(w, "market", err)
		return
	}
	if news == nil {
		news = []marketdata.NewsItem{}
	}
	h.writeJSON(w, http.StatusOK, news)
}

// HandleForexRate returns the GBP->USD conversion rate.
func (h *Handlers) HandleForexRate(w http.ResponseWriter, r *http.Request) {
	rate := h.market.GetForexRate(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"from": "GBP",
		"to":   "USD",
		"rate": rate,
		"at":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeQuoteError maps the upstream error taxonomy to HTTP statuses.
func (h *Handlers) writeQuoteError(w http.ResponseWriter, subject string, err error) {
	h.log.Warn().Err(err).Str("subject", subject).Msg("Market data request failed")

	switch {
	case errors.Is(err, upstream.ErrMissingAPIKey):
		h.writeError(w, http.StatusServiceUnavailable, "market data provider not configured")
	case errors.Is(err, upstream.ErrInvalidSymbol):
		h.writeError(w, http.StatusNotFound, "unknown symbol")
	case errors.Is(err, upstream.ErrTimeout):
		h.writeError(w, http.StatusGatewayTimeout, "market data provider timed out")
	default:
		var httpErr *upstream.HTTPError
		if errors.As(err, &httpErr) {
			h.writeError(w, http.StatusBadGateway, httpErr.Error())
			return
		}
		h.writeError(w, http.StatusBadGateway, "market data request failed")
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
