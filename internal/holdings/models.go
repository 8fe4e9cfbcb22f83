// Package holdings owns the portfolio holdings: the data model and the
// SQLite-backed repository. Holdings are passed by value into the
// analytics engine, which never persists them.
package holdings

// Lot is one discrete purchase: quantity bought at a price on a date.
// Date is an ISO "2006-01-02" string and may be empty or malformed on
// records imported from older exports; consumers must validate it.
type Lot struct {
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Date     string  `json:"date"`
}

// Holding is one portfolio position. Lots carry the cost basis; records
// predating lot tracking instead carry the legacy aggregate fields, from
// which a single synthetic lot is derived when needed.
type Holding struct {
	ID                 string  `json:"id"`
	Symbol             string  `json:"symbol"`
	Lots               []Lot   `json:"lots"`
	LegacyQuantity     float64 `json:"legacyQuantity,omitempty"`
	LegacyAveragePrice float64 `json:"legacyAveragePrice,omitempty"`
	CreatedAt          string  `json:"createdAt,omitempty"`
	UpdatedAt          string  `json:"updatedAt,omitempty"`
}

// Quantity returns the total held quantity: the sum over usable lots,
// or the legacy aggregate if no lot has a positive quantity.
func (h Holding) Quantity() float64 {
	var total float64
	for _, lot := range h.Lots {
		if lot.Quantity > 0 {
			total += lot.Quantity
		}
	}
	if total == 0 {
		return h.LegacyQuantity
	}
	return total
}

// Symbols extracts the symbol list from a holdings slice, preserving
// order and duplicates.
func Symbols(list []Holding) []string {
	symbols := make([]string, 0, len(list))
	for _, h := range list {
		symbols = append(symbols, h.Symbol)
	}
	return symbols
}
