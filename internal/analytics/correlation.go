package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/foliolabs/folio/internal/marketdata"
)

const (
	// Correlations use the most recent 30 trading-day returns.
	correlationWindow = 30
	// A pair needs at least this many common observations; below it a
	// Pearson estimate is numerically unstable and reported as null.
	minCorrelationObs = 5
)

// CorrelationMatrix is the pairwise Pearson correlation of daily
// returns. Matrix[i][j] is nil when the pair has too few common
// observations to estimate.
type CorrelationMatrix struct {
	Symbols []string     `json:"symbols"`
	Matrix  [][]*float64 `json:"matrix"`
}

// ComputeCorrelations builds the pairwise correlation matrix for the
// given symbols from their daily close series. The diagonal is set to
// exactly 1 without computing anything; off-diagonal cells align the
// two return series on common dates before correlating.
func ComputeCorrelations(symbols []string, series map[string]*marketdata.ChartSeries) CorrelationMatrix {
	returns := make(map[string]map[string]float64, len(symbols))
	for _, symbol := range symbols {
		returns[symbol] = recentReturns(series[symbol], correlationWindow)
	}

	n := len(symbols)
	matrix := make([][]*float64, n)
	for i := range matrix {
		matrix[i] = make([]*float64, n)
	}

	one := 1.0
	for i := 0; i < n; i++ {
		matrix[i][i] = &one
		for j := i + 1; j < n; j++ {
			c := pairCorrelation(returns[symbols[i]], returns[symbols[j]])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}

	return CorrelationMatrix{Symbols: symbols, Matrix: matrix}
}

// recentReturns computes simple daily returns from consecutive closes,
// keyed by the later day's date, keeping only the last `window` points.
func recentReturns(s *marketdata.ChartSeries, window int) map[string]float64 {
	if s == nil || s.Len() < 2 {
		return nil
	}

	start := 1
	if s.Len()-start > window {
		start = s.Len() - window
	}

	out := make(map[string]float64, s.Len()-start)
	for i := start; i < s.Len(); i++ {
		prev := s.Closes[i-1]
		if prev <= 0 {
			continue
		}
		out[s.Dates[i]] = s.Closes[i]/prev - 1
	}
	return out
}

// pairCorrelation aligns two return maps on common dates and returns
// the rounded Pearson coefficient, or nil with too few observations.
// Common dates are sorted so the estimate is deterministic.
func pairCorrelation(a, b map[string]float64) *float64 {
	common := make([]string, 0, len(a))
	for date := range a {
		if _, ok := b[date]; ok {
			common = append(common, date)
		}
	}
	if len(common) < minCorrelationObs {
		return nil
	}
	sort.Strings(common)

	x := make([]float64, len(common))
	y := make([]float64, len(common))
	for i, date := range common {
		x[i] = a[date]
		y[i] = b[date]
	}

	c := stat.Correlation(x, y, nil)
	r := round2(c)
	return &r
}
