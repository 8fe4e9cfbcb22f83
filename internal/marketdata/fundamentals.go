package marketdata

import (
	"context"
	"strings"
	"time"

	"github.com/foliolabs/folio/internal/cache"
	"github.com/foliolabs/folio/internal/clients/alphavantage"
)

// The fundamentals adapters feed the analytics engine, so they never
// return errors: any failure degrades to a neutral fallback value
// (empty series, nil target, sector "Unknown", beta 1.0) and the
// computation carries on with what it has.

// GetProfile returns sector, beta and asset type for a symbol,
// assembled Finnhub-first with Alpha Vantage overview as the fallback
// for fields the primary cannot supply.
func (s *Service) GetProfile(ctx context.Context, symbol string) *Profile {
	key := cache.Key("profile", symbol)
	if v, ok := s.store.Get(key, cache.TTLProfile); ok {
		return v.(*Profile)
	}

	v, _ := s.flights.Do(key, func() (interface{}, error) {
		p := s.fetchProfile(ctx, symbol)
		s.store.Set(key, p)
		return p, nil
	})
	return v.(*Profile)
}

func (s *Service) fetchProfile(ctx context.Context, symbol string) *Profile {
	profile := &Profile{
		Symbol: symbol,
		Sector: "Unknown",
		Beta:   1.0,
	}

	fp, err := s.primary.GetProfile(ctx, symbol)
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Primary profile fetch failed")
	} else {
		profile.Name = fp.Name
		if fp.Industry != "" {
			profile.Sector = fp.Industry
		}
	}

	if m, err := s.primary.GetMetrics(ctx, symbol); err == nil && m.Metric.Beta != 0 {
		profile.Beta = m.Metric.Beta
	}

	// Fill remaining gaps from the secondary provider's overview.
	needsOverview := profile.Sector == "Unknown" || profile.Beta == 1.0 || profile.AssetType == ""
	if needsOverview {
		if o := s.getOverview(ctx, symbol); o != nil {
			if profile.Sector == "Unknown" && o.Sector != "" {
				profile.Sector = o.Sector
			}
			if profile.Beta == 1.0 && o.Beta != 0 {
				profile.Beta = o.Beta
			}
			if profile.Name == "" {
				profile.Name = o.Name
			}
			profile.AssetType = o.AssetType
		}
	}

	if profile.AssetType == "" {
		if strings.Contains(strings.ToUpper(profile.Name), "ETF") {
			profile.AssetType = "ETF"
		} else {
			profile.AssetType = "Common Stock"
		}
	}

	return profile
}

// GetRecommendations returns analyst recommendation trends, most recent
// period first. Failures yield an empty slice.
func (s *Service) GetRecommendations(ctx context.Context, symbol string) []RecommendationTrend {
	key := cache.Key("recommendations", symbol)
	if v, ok := s.store.Get(key, cache.TTLAnalystRecs); ok {
		return v.([]RecommendationTrend)
	}

	v, err := s.flights.Do(key, func() (interface{}, error) {
		raw, err := s.primary.GetRecommendations(ctx, symbol)
		if err != nil {
			return nil, err
		}
		trends := make([]RecommendationTrend, 0, len(raw))
		for _, r := range raw {
			trends = append(trends, RecommendationTrend{
				Symbol:     r.Symbol,
				Period:     r.Period,
				StrongBuy:  r.StrongBuy,
				Buy:        r.Buy,
				Hold:       r.Hold,
				Sell:       r.Sell,
				StrongSell: r.StrongSell,
			})
		}
		s.store.Set(key, trends)
		return trends, nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Recommendations fetch failed")
		return nil
	}
	return v.([]RecommendationTrend)
}

// GetPriceTarget returns the analyst price target for a symbol, falling
// back to the secondary provider's consensus target when the primary
// returns an all-zero result. Returns nil when neither provider has one.
func (s *Service) GetPriceTarget(ctx context.Context, symbol string) *PriceTarget {
	key := cache.Key("price-target", symbol)
	if v, ok := s.store.Get(key, cache.TTLPriceTarget); ok {
		return v.(*PriceTarget)
	}

	v, _ := s.flights.Do(key, func() (interface{}, error) {
		pt := s.fetchPriceTarget(ctx, symbol)
		if pt != nil {
			s.store.Set(key, pt)
		}
		return pt, nil
	})
	if v == nil {
		return nil
	}
	return v.(*PriceTarget)
}

func (s *Service) fetchPriceTarget(ctx context.Context, symbol string) *PriceTarget {
	fpt, err := s.primary.GetPriceTarget(ctx, symbol)
	if err == nil && fpt.TargetMean != 0 {
		return &PriceTarget{
			Symbol:       symbol,
			TargetHigh:   fpt.TargetHigh,
			TargetLow:    fpt.TargetLow,
			TargetMean:   fpt.TargetMean,
			TargetMedian: fpt.TargetMedian,
		}
	}

	// Primary returned nothing usable; try the secondary consensus.
	if o := s.getOverview(ctx, symbol); o != nil && o.AnalystTargetPrice > 0 {
		return &PriceTarget{
			Symbol:     symbol,
			TargetMean: o.AnalystTargetPrice,
		}
	}
	return nil
}

// GetDividend resolves dividend calendar data for a symbol. The annual
// rate prefers the primary provider's trailing figure; ex-date and pay
// date come from the secondary overview. Returns nil when no ex-date is
// discoverable.
func (s *Service) GetDividend(ctx context.Context, symbol string) *DividendInfo {
	key := cache.Key("dividend", symbol)
	if v, ok := s.store.Get(key, cache.TTLDividend); ok {
		return v.(*DividendInfo)
	}

	v, _ := s.flights.Do(key, func() (interface{}, error) {
		d := s.fetchDividend(ctx, symbol)
		if d != nil {
			s.store.Set(key, d)
		}
		return d, nil
	})
	if v == nil {
		return nil
	}
	return v.(*DividendInfo)
}

func (s *Service) fetchDividend(ctx context.Context, symbol string) *DividendInfo {
	o := s.getOverview(ctx, symbol)
	if o == nil || o.ExDividendDate == "" {
		return nil
	}

	rate := o.DividendPerShare
	if m, err := s.primary.GetMetrics(ctx, symbol); err == nil && m.Metric.DividendPerShareAnnual > 0 {
		rate = m.Metric.DividendPerShareAnnual
	}

	return &DividendInfo{
		Symbol:     symbol,
		ExDate:     o.ExDividendDate,
		PayDate:    o.DividendDate,
		AnnualRate: rate,
	}
}

// GetChart returns the daily close series for a symbol from startDate
// to now. Days without a published close are skipped. Any upstream
// failure yields an empty (non-nil) series; the failure is not cached,
// so the next call retries.
func (s *Service) GetChart(ctx context.Context, symbol string, startDate time.Time) *ChartSeries {
	key := cache.Key("chart", symbol, startDate.Format("2006-01-02"))
	if v, ok := s.store.Get(key, cache.TTLChart); ok {
		return v.(*ChartSeries)
	}

	v, err := s.flights.Do(key, func() (interface{}, error) {
		candles, err := s.primary.GetCandles(ctx, symbol, startDate.Unix(), s.now().Unix())
		if err != nil {
			return nil, err
		}

		series := &ChartSeries{Symbol: symbol}
		for i, c := range candles.Closes {
			if c <= 0 {
				continue
			}
			date := time.Unix(candles.Timestamps[i], 0).UTC().Format("2006-01-02")
			series.Dates = append(series.Dates, date)
			series.Closes = append(series.Closes, c)
		}
		s.store.Set(key, series)
		return series, nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Chart fetch failed, returning empty series")
		return &ChartSeries{Symbol: symbol}
	}
	return v.(*ChartSeries)
}

// getOverview fetches and caches the secondary provider's company
// overview, shared by the profile, price-target and dividend adapters.
// Returns nil on any failure.
func (s *Service) getOverview(ctx context.Context, symbol string) *alphavantage.Overview {
	key := cache.Key("overview", symbol)
	if v, ok := s.store.Get(key, cache.TTLProfile); ok {
		return v.(*alphavantage.Overview)
	}

	v, err := s.flights.Do(key, func() (interface{}, error) {
		o, err := s.secondary.GetOverview(ctx, symbol)
		if err != nil {
			return nil, err
		}
		s.store.Set(key, o)
		return o, nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Overview fetch failed")
		return nil
	}
	return v.(*alphavantage.Overview)
}
