package analytics

import (
	"sort"
	"time"

	"github.com/foliolabs/folio/internal/marketdata"
)

// dividendHorizon is how far ahead an ex-date may fall and still be
// listed as upcoming.
const dividendHorizon = 60 * 24 * time.Hour

// DividendForecast is one estimated upcoming dividend payment.
type DividendForecast struct {
	Symbol          string  `json:"symbol"`
	ExDate          string  `json:"exDate"`
	PayDate         string  `json:"payDate,omitempty"`
	AnnualRate      float64 `json:"annualRate"`
	Amount          float64 `json:"amount"`
	EstimatedPayout float64 `json:"estimatedPayout"`
}

// EstimateDividends projects upcoming dividend payouts from resolved
// calendar data and held quantities. An ex-date qualifies when it falls
// within the next 60 days, or anywhere in the current calendar month so
// a just-passed ex-date with a pending payment still shows up. Payments
// are assumed quarterly: per-share amount is the annualized rate over
// four. Output is sorted ascending by ex-date.
func EstimateDividends(
	infos map[string]*marketdata.DividendInfo,
	quantities map[string]float64,
	now time.Time,
) []DividendForecast {
	forecasts := []DividendForecast{}

	for symbol, info := range infos {
		if info == nil || info.ExDate == "" {
			continue
		}
		exDate, err := time.Parse(isoDate, info.ExDate)
		if err != nil {
			continue
		}
		if !dividendQualifies(exDate, now) {
			continue
		}

		amount := round2(info.AnnualRate / 4)
		qty := quantities[symbol]
		forecasts = append(forecasts, DividendForecast{
			Symbol:          symbol,
			ExDate:          info.ExDate,
			PayDate:         info.PayDate,
			AnnualRate:      info.AnnualRate,
			Amount:          amount,
			EstimatedPayout: round2(amount * qty),
		})
	}

	sort.Slice(forecasts, func(i, j int) bool {
		if forecasts[i].ExDate != forecasts[j].ExDate {
			return forecasts[i].ExDate < forecasts[j].ExDate
		}
		return forecasts[i].Symbol < forecasts[j].Symbol
	})
	return forecasts
}

func dividendQualifies(exDate, now time.Time) bool {
	if !exDate.Before(now.Truncate(24*time.Hour)) && exDate.Sub(now) <= dividendHorizon {
		return true
	}
	return exDate.Year() == now.Year() && exDate.Month() == now.Month()
}
