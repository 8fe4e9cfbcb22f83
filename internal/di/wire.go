// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/foliolabs/folio/internal/analytics"
	"github.com/foliolabs/folio/internal/cache"
	"github.com/foliolabs/folio/internal/clients/alphavantage"
	"github.com/foliolabs/folio/internal/clients/exchangerate"
	"github.com/foliolabs/folio/internal/clients/finnhub"
	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/database"
	"github.com/foliolabs/folio/internal/holdings"
	"github.com/foliolabs/folio/internal/marketdata"
	"github.com/foliolabs/folio/internal/server"
)

// Container holds all wired dependencies.
type Container struct {
	HoldingsDB *database.DB
	Cache      *cache.Store

	Finnhub      *finnhub.Client
	AlphaVantage *alphavantage.Client
	ExchangeRate *exchangerate.Client

	HoldingsRepo *holdings.Repository
	MarketData   *marketdata.Service
	Analytics    *analytics.Service

	Handlers       *server.Handlers
	SystemHandlers *server.SystemHandlers
}

// Wire initializes all dependencies and returns a fully configured
// container. Order of operations: database, cache, provider clients,
// services, HTTP handlers.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	holdingsDB, err := database.New(database.Config{
		Path:    cfg.HoldingsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "holdings",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize holdings database: %w", err)
	}
	if err := holdingsDB.Migrate(); err != nil {
		holdingsDB.Close()
		return nil, fmt.Errorf("failed to migrate holdings database: %w", err)
	}

	store := cache.NewStore()

	fh := finnhub.NewClient(cfg.FinnhubAPIKey, log)
	av := alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)
	er := exchangerate.NewClient(log)

	market := marketdata.NewService(store, fh, av, er, log)
	engine := analytics.NewService(store, market, cfg.BenchmarkSymbol, log)
	repo := holdings.NewRepository(holdingsDB.Conn(), log)

	c := &Container{
		HoldingsDB:     holdingsDB,
		Cache:          store,
		Finnhub:        fh,
		AlphaVantage:   av,
		ExchangeRate:   er,
		HoldingsRepo:   repo,
		MarketData:     market,
		Analytics:      engine,
		Handlers:       server.NewHandlers(repo, market, engine, log),
		SystemHandlers: server.NewSystemHandlers(holdingsDB, store, log),
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return c, nil
}

// Close releases everything the container owns.
func (c *Container) Close() {
	if c.HoldingsDB != nil {
		_ = c.HoldingsDB.Close()
	}
}
