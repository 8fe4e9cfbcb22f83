package analytics

import (
	"math"

	"github.com/foliolabs/folio/internal/marketdata"
)

// HealthComponents are the three sub-scores behind the composite health
// score, each on a 0-100 scale.
type HealthComponents struct {
	Diversification float64 `json:"diversification"`
	Volatility      float64 `json:"volatility"`
	Sentiment       float64 `json:"sentiment"`
}

// HealthBreakdown is the full health-score output.
type HealthBreakdown struct {
	Score         int              `json:"score"`
	Components    HealthComponents `json:"components"`
	PortfolioBeta float64          `json:"portfolioBeta"`
	MaxSectorPct  float64          `json:"maxSectorPct"`
}

const neutralSentiment = 50.0

// ComputeHealth scores the portfolio on sector concentration, weighted
// beta and analyst sentiment.
//
// Diversification penalizes the largest sector exposure beyond 30% of
// market value at 2.5 points per percent. Volatility penalizes
// value-weighted beta above 1.0 at 50 points per unit. Sentiment is the
// mean analyst buy-ratio over non-ETF holdings that have at least one
// rating; holdings without ratings are excluded from the mean, and a
// portfolio with no rated holding defaults to neutral. The composite is
// a 40/30/30 weighted round.
func ComputeHealth(
	values map[string]float64,
	profiles map[string]*marketdata.Profile,
	recs map[string][]marketdata.RecommendationTrend,
) HealthBreakdown {
	totalValue := 0.0
	for _, v := range values {
		totalValue += v
	}

	sectorValue := make(map[string]float64)
	weightedBeta := 0.0
	for symbol, v := range values {
		sector := "Unknown"
		beta := 1.0
		if p := profiles[symbol]; p != nil {
			if p.Sector != "" {
				sector = p.Sector
			}
			if p.Beta != 0 {
				beta = p.Beta
			}
		}
		sectorValue[sector] += v
		if totalValue > 0 {
			weightedBeta += v / totalValue * beta
		}
	}
	if totalValue == 0 {
		weightedBeta = 1.0
	}

	maxSectorPct := 0.0
	if totalValue > 0 {
		for _, v := range sectorValue {
			pct := v / totalValue * 100
			if pct > maxSectorPct {
				maxSectorPct = pct
			}
		}
	}

	diversification := math.Max(0, 100-math.Max(0, maxSectorPct-30)*2.5)
	volatility := math.Max(0, 100-math.Max(0, weightedBeta-1.0)*50)

	sentiment := neutralSentiment
	var ratioSum float64
	var rated int
	for symbol := range values {
		if p := profiles[symbol]; p != nil && p.IsETF() {
			continue
		}
		if ratio, ok := buyRatio(recs[symbol]); ok {
			ratioSum += ratio
			rated++
		}
	}
	if rated > 0 {
		sentiment = ratioSum / float64(rated) * 100
	}

	score := int(math.Round(diversification*0.4 + volatility*0.3 + sentiment*0.3))

	return HealthBreakdown{
		Score: score,
		Components: HealthComponents{
			Diversification: round2(diversification),
			Volatility:      round2(volatility),
			Sentiment:       round2(sentiment),
		},
		PortfolioBeta: round2(weightedBeta),
		MaxSectorPct:  round2(maxSectorPct),
	}
}

// buyRatio returns (buy+strongBuy)/total for the most recent rated
// period, or false when the symbol has no ratings at all.
func buyRatio(trends []marketdata.RecommendationTrend) (float64, bool) {
	for _, t := range trends {
		if total := t.Total(); total > 0 {
			return float64(t.Buy+t.StrongBuy) / float64(total), true
		}
	}
	return 0, false
}
