package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foliolabs/folio/internal/marketdata"
)

func profile(symbol, sector string, beta float64, assetType string) *marketdata.Profile {
	return &marketdata.Profile{Symbol: symbol, Sector: sector, Beta: beta, AssetType: assetType}
}

func TestHealthBalancedPortfolio(t *testing.T) {
	values := map[string]float64{"AAPL": 1000, "JPM": 1000, "XOM": 1000, "JNJ": 1000}
	profiles := map[string]*marketdata.Profile{
		"AAPL": profile("AAPL", "Technology", 1.0, "Common Stock"),
		"JPM":  profile("JPM", "Financial Services", 1.0, "Common Stock"),
		"XOM":  profile("XOM", "Energy", 1.0, "Common Stock"),
		"JNJ":  profile("JNJ", "Healthcare", 1.0, "Common Stock"),
	}

	h := ComputeHealth(values, profiles, nil)

	// Max sector 25% is under the 30% threshold: no penalty.
	assert.Equal(t, 100.0, h.Components.Diversification)
	assert.Equal(t, 100.0, h.Components.Volatility)
	assert.Equal(t, 50.0, h.Components.Sentiment, "no ratings defaults to neutral")
	assert.Equal(t, 25.0, h.MaxSectorPct)
	assert.Equal(t, 1.0, h.PortfolioBeta)
	// round(100*0.4 + 100*0.3 + 50*0.3) = 85
	assert.Equal(t, 85, h.Score)
}

func TestHealthConcentrationPenalty(t *testing.T) {
	values := map[string]float64{"AAPL": 1000}
	profiles := map[string]*marketdata.Profile{
		"AAPL": profile("AAPL", "Technology", 1.0, "Common Stock"),
	}

	h := ComputeHealth(values, profiles, nil)

	// 100% in one sector: 100 - (100-30)*2.5 = -75, clamped to 0.
	assert.Equal(t, 0.0, h.Components.Diversification)
	assert.Equal(t, 100.0, h.MaxSectorPct)
}

func TestHealthBetaPenalty(t *testing.T) {
	values := map[string]float64{"AAPL": 1000, "TSLA": 1000}
	profiles := map[string]*marketdata.Profile{
		"AAPL": profile("AAPL", "Technology", 1.0, "Common Stock"),
		"TSLA": profile("TSLA", "Consumer Cyclical", 2.0, "Common Stock"),
	}

	h := ComputeHealth(values, profiles, nil)

	assert.Equal(t, 1.5, h.PortfolioBeta)
	// 100 - (1.5-1.0)*50 = 75
	assert.Equal(t, 75.0, h.Components.Volatility)
}

func TestHealthSentimentExcludesETFsAndUnrated(t *testing.T) {
	values := map[string]float64{"AAPL": 1000, "VTI": 1000, "MYSTERY": 1000}
	profiles := map[string]*marketdata.Profile{
		"AAPL":    profile("AAPL", "Technology", 1.0, "Common Stock"),
		"VTI":     profile("VTI", "Unknown", 1.0, "ETF"),
		"MYSTERY": profile("MYSTERY", "Unknown", 1.0, "Common Stock"),
	}
	recs := map[string][]marketdata.RecommendationTrend{
		"AAPL": {{Symbol: "AAPL", StrongBuy: 10, Buy: 10, Hold: 5}},
		// The ETF has ratings but must not count.
		"VTI": {{Symbol: "VTI", StrongBuy: 100}},
		// MYSTERY has no ratings and must be excluded, not counted as 0.
	}

	h := ComputeHealth(values, profiles, recs)

	// Only AAPL qualifies: (10+10)/25 = 80%.
	assert.Equal(t, 80.0, h.Components.Sentiment)
}

func TestHealthSentimentSkipsEmptyPeriods(t *testing.T) {
	values := map[string]float64{"AAPL": 1000}
	profiles := map[string]*marketdata.Profile{
		"AAPL": profile("AAPL", "Technology", 1.0, "Common Stock"),
	}
	recs := map[string][]marketdata.RecommendationTrend{
		"AAPL": {
			{Symbol: "AAPL"}, // empty period
			{Symbol: "AAPL", Buy: 3, Hold: 1},
		},
	}

	h := ComputeHealth(values, profiles, recs)
	assert.Equal(t, 75.0, h.Components.Sentiment)
}

func TestHealthEmptyPortfolio(t *testing.T) {
	h := ComputeHealth(nil, nil, nil)

	assert.Equal(t, 100.0, h.Components.Diversification)
	assert.Equal(t, 100.0, h.Components.Volatility)
	assert.Equal(t, 50.0, h.Components.Sentiment)
	assert.Equal(t, 1.0, h.PortfolioBeta)
	assert.Equal(t, 0.0, h.MaxSectorPct)
	assert.Equal(t, 85, h.Score)
}

func TestHealthMissingProfileDefaults(t *testing.T) {
	values := map[string]float64{"NOPROF": 1000}

	h := ComputeHealth(values, map[string]*marketdata.Profile{}, nil)

	assert.Equal(t, 100.0, h.MaxSectorPct, "missing profile lands in the Unknown sector")
	assert.Equal(t, 1.0, h.PortfolioBeta, "missing beta defaults to 1.0")
}
