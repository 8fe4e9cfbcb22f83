package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolabs/folio/internal/marketdata"
)

// walkSeries builds a daily series over n days from a close function.
func walkSeries(symbol string, n int, close func(i int) float64) *marketdata.ChartSeries {
	s := &marketdata.ChartSeries{Symbol: symbol}
	for i := 0; i < n; i++ {
		s.Dates = append(s.Dates, fmt.Sprintf("2024-03-%02d", i+1))
		s.Closes = append(s.Closes, close(i))
	}
	return s
}

func TestCorrelationDiagonalIsExactlyOne(t *testing.T) {
	symbols := []string{"AAPL", "MSFT", "EMPTY"}
	charts := map[string]*marketdata.ChartSeries{
		"AAPL": walkSeries("AAPL", 10, func(i int) float64 { return 100 + float64(i) }),
		"MSFT": walkSeries("MSFT", 10, func(i int) float64 { return 400 - float64(i) }),
		// EMPTY has no data at all; even so its diagonal must be 1.
	}

	m := ComputeCorrelations(symbols, charts)

	require.Len(t, m.Matrix, 3)
	for i := range m.Matrix {
		require.NotNil(t, m.Matrix[i][i])
		assert.Equal(t, 1.0, *m.Matrix[i][i])
	}
}

func TestCorrelationPerfectlyCorrelated(t *testing.T) {
	// B is a constant multiple of A, so daily returns are identical.
	a := walkSeries("A", 10, func(i int) float64 { return 100 * (1 + 0.01*float64(i)) })
	b := walkSeries("B", 10, func(i int) float64 { return 200 * (1 + 0.01*float64(i)) })

	m := ComputeCorrelations([]string{"A", "B"}, map[string]*marketdata.ChartSeries{"A": a, "B": b})

	require.NotNil(t, m.Matrix[0][1])
	assert.Equal(t, 1.0, *m.Matrix[0][1])
	assert.Equal(t, m.Matrix[0][1], m.Matrix[1][0], "matrix is symmetric")
}

func TestCorrelationInsufficientData(t *testing.T) {
	a := walkSeries("A", 10, func(i int) float64 { return 100 + float64(i) })
	// 4 closes give 3 returns, below the 5-observation minimum.
	b := walkSeries("B", 4, func(i int) float64 { return 50 + float64(i) })

	m := ComputeCorrelations([]string{"A", "B"}, map[string]*marketdata.ChartSeries{"A": a, "B": b})

	assert.Nil(t, m.Matrix[0][1])
	assert.Nil(t, m.Matrix[1][0])
	require.NotNil(t, m.Matrix[1][1])
	assert.Equal(t, 1.0, *m.Matrix[1][1])
}

func TestCorrelationMissingSeries(t *testing.T) {
	a := walkSeries("A", 10, func(i int) float64 { return 100 + float64(i) })

	m := ComputeCorrelations([]string{"A", "GHOST"}, map[string]*marketdata.ChartSeries{"A": a})

	assert.Nil(t, m.Matrix[0][1])
}

func TestCorrelationAntiCorrelated(t *testing.T) {
	a := walkSeries("A", 8, func(i int) float64 {
		if i%2 == 0 {
			return 100
		}
		return 110
	})
	b := walkSeries("B", 8, func(i int) float64 {
		if i%2 == 0 {
			return 110
		}
		return 100
	})

	m := ComputeCorrelations([]string{"A", "B"}, map[string]*marketdata.ChartSeries{"A": a, "B": b})

	require.NotNil(t, m.Matrix[0][1])
	assert.InDelta(t, -1.0, *m.Matrix[0][1], 0.01)
}

func TestRecentReturnsWindow(t *testing.T) {
	// 40 closes yield 39 returns; only the most recent 30 survive.
	s := walkSeriesLong("A", 40)
	rets := recentReturns(s, correlationWindow)
	assert.Len(t, rets, 30)
	_, hasEarly := rets[s.Dates[5]]
	assert.False(t, hasEarly, "early returns fall outside the window")
	_, hasLast := rets[s.Dates[39]]
	assert.True(t, hasLast)
}

func walkSeriesLong(symbol string, n int) *marketdata.ChartSeries {
	s := &marketdata.ChartSeries{Symbol: symbol}
	for i := 0; i < n; i++ {
		s.Dates = append(s.Dates, fmt.Sprintf("2024-01-01-%03d", i))
		s.Closes = append(s.Closes, 100+float64(i))
	}
	return s
}
