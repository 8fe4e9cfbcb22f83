package marketdata

// Quote is a normalized real-time quote in the reporting currency (USD).
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PreviousClose float64 `json:"previousClose"`
}

// ChartSeries is a daily close series as parallel arrays of ISO dates
// and closes. Days with no published close are skipped, so the arrays
// are always the same length.
type ChartSeries struct {
	Symbol string    `json:"symbol"`
	Dates  []string  `json:"dates"`
	Closes []float64 `json:"closes"`
}

// Len returns the number of points in the series.
func (s *ChartSeries) Len() int { return len(s.Dates) }

// Profile is normalized company reference data used by the health-score
// model. Sector defaults to "Unknown" and Beta to 1.0 when no provider
// could supply them.
type Profile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Beta      float64 `json:"beta"`
	AssetType string  `json:"assetType"`
}

// IsETF reports whether the security is an exchange-traded fund.
// ETFs are excluded from the analyst-sentiment sub-score.
func (p *Profile) IsETF() bool { return p.AssetType == "ETF" }

// RecommendationTrend is one period of analyst ratings.
type RecommendationTrend struct {
	Symbol     string `json:"symbol"`
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// Total returns the number of ratings in the period.
func (r RecommendationTrend) Total() int {
	return r.StrongBuy + r.Buy + r.Hold + r.Sell + r.StrongSell
}

// PriceTarget is the analyst consensus price target for a symbol.
type PriceTarget struct {
	Symbol       string  `json:"symbol"`
	TargetHigh   float64 `json:"targetHigh"`
	TargetLow    float64 `json:"targetLow"`
	TargetMean   float64 `json:"targetMean"`
	TargetMedian float64 `json:"targetMedian"`
}

// DividendInfo is the resolved dividend calendar data for a symbol.
// ExDate is always set; PayDate may be empty.
type DividendInfo struct {
	Symbol     string  `json:"symbol"`
	ExDate     string  `json:"exDate"`
	PayDate    string  `json:"payDate,omitempty"`
	AnnualRate float64 `json:"annualRate"`
}

// NewsItem is a normalized news article.
type NewsItem struct {
	ID       int64  `json:"id"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Image    string `json:"image,omitempty"`
	Related  string `json:"related,omitempty"`
}

// SearchMatch is one symbol search result.
type SearchMatch struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}
