package analytics

import (
	"math"

	"github.com/foliolabs/folio/internal/marketdata"
)

// BenchmarkPoint is one trading day of the portfolio-vs-index series.
// Percentages are cumulative returns re-based to 0 at inception.
type BenchmarkPoint struct {
	Date         string  `json:"date"`
	PortfolioPct float64 `json:"portfolioReturnPct"`
	IndexPct     float64 `json:"indexReturnPct"`
}

// dayState is the immutable per-day snapshot produced by the TWR fold.
type dayState struct {
	marketValue  float64
	portfolioCum float64
	indexCum     float64
}

// BuildBenchmark walks the reference index's trading days in ascending
// order and folds the portfolio's time-weighted return alongside the
// index's own cumulative return.
//
// The daily portfolio return is r = MV(t) / (MV(t-1) + inflow(t)) - 1,
// where inflow(t) is the cost of acquisition events dated on or before
// day t that have not yet been consumed. Chaining r multiplicatively
// neutralizes the distortion purchases would otherwise cause. Closes
// are forward-filled per symbol; a symbol with no close yet contributes
// zero market value.
//
// The raw series is then filtered to points dated on or after inception
// and both lines are re-based so the first surviving point is exactly
// 0%. An empty index series yields an empty result.
func BuildBenchmark(
	index *marketdata.ChartSeries,
	symbolSeries map[string]*marketdata.ChartSeries,
	events []AcquisitionEvent,
	inceptionDate string,
) []BenchmarkPoint {
	if index == nil || index.Len() == 0 {
		return []BenchmarkPoint{}
	}

	// Per-symbol date -> close lookup for the walk.
	closes := make(map[string]map[string]float64, len(symbolSeries))
	for symbol, series := range symbolSeries {
		if series == nil {
			continue
		}
		bySym := make(map[string]float64, series.Len())
		for i, date := range series.Dates {
			bySym[date] = series.Closes[i]
		}
		closes[symbol] = bySym
	}

	quantities := make(map[string]float64)
	lastClose := make(map[string]float64)
	eventIdx := 0

	var raw []BenchmarkPoint
	state := dayState{}
	prevIndexClose := 0.0

	for i, date := range index.Dates {
		// Consume acquisition events up to and including this day.
		inflow := 0.0
		for eventIdx < len(events) && events[eventIdx].Date <= date {
			ev := events[eventIdx]
			quantities[ev.Symbol] += ev.Quantity
			inflow += ev.Quantity * ev.Price
			eventIdx++
		}

		for symbol := range quantities {
			if c, ok := closes[symbol][date]; ok {
				lastClose[symbol] = c
			}
		}

		marketValue := 0.0
		for symbol, qty := range quantities {
			marketValue += qty * lastClose[symbol]
		}

		next := dayState{marketValue: marketValue}

		denom := state.marketValue + inflow
		r := 0.0
		if denom > 0 {
			r = marketValue/denom - 1
		}
		next.portfolioCum = (1+state.portfolioCum)*(1+r) - 1

		next.indexCum = state.indexCum
		if i > 0 && prevIndexClose > 0 {
			ir := index.Closes[i]/prevIndexClose - 1
			next.indexCum = (1+state.indexCum)*(1+ir) - 1
		}
		prevIndexClose = index.Closes[i]

		raw = append(raw, BenchmarkPoint{
			Date:         date,
			PortfolioPct: round2(next.portfolioCum * 100),
			IndexPct:     round2(next.indexCum * 100),
		})
		state = next
	}

	return rebase(raw, inceptionDate)
}

// rebase drops points before the inception date and shifts both series
// so the first surviving point reads exactly 0%.
func rebase(points []BenchmarkPoint, inceptionDate string) []BenchmarkPoint {
	start := 0
	for start < len(points) && points[start].Date < inceptionDate {
		start++
	}
	if start == len(points) {
		return []BenchmarkPoint{}
	}

	basePortfolio := points[start].PortfolioPct
	baseIndex := points[start].IndexPct

	out := make([]BenchmarkPoint, 0, len(points)-start)
	for _, p := range points[start:] {
		out = append(out, BenchmarkPoint{
			Date:         p.Date,
			PortfolioPct: round2(p.PortfolioPct - basePortfolio),
			IndexPct:     round2(p.IndexPct - baseIndex),
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
