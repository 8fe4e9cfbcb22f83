package analytics

import (
	"sort"
	"time"

	"github.com/foliolabs/folio/internal/holdings"
)

const isoDate = "2006-01-02"

// AcquisitionEvent is one derived purchase: the quantity of a symbol
// bought at a price on a date. Events are immutable once reconstructed
// and always consumed in chronological order.
type AcquisitionEvent struct {
	Date     string
	Symbol   string
	Quantity float64
	Price    float64
}

// CostBasis is the reconstructed acquisition history of a portfolio.
type CostBasis struct {
	// Events sorted ascending by date.
	Events []AcquisitionEvent
	// Total held quantity per symbol.
	Quantities map[string]float64
	// Average cost per share per symbol (0 when quantity is 0).
	AvgCost map[string]float64
	// Earliest valid acquisition date across the portfolio. Defaults
	// to "now" when no event carries a valid date, so malformed input
	// can never manufacture a multi-decade benchmark window.
	Inception time.Time
}

// parseLotDate parses an acquisition date and reports whether it is
// valid. The year-2000 cutoff is a deliberate heuristic: null and
// zero-value dates from older exports collapse to the Unix epoch, and
// no real lot in this system predates 2000.
func parseLotDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(isoDate, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
	}
	if t.Year() <= 2000 {
		return time.Time{}, false
	}
	return t, true
}

// ReconstructCostBasis derives the acquisition events, per-symbol
// quantities and average costs, and the portfolio inception date from a
// holdings list.
//
// A holding with usable lots (positive quantity) emits one event per
// lot. Lots with an invalid date are stamped "today" so they still
// contribute quantity and cost without corrupting the inception
// calculation. A holding with no usable lots falls back to a single
// synthetic event built from its legacy aggregate fields, dated at
// CreatedAt when that is valid.
func ReconstructCostBasis(list []holdings.Holding, now time.Time) *CostBasis {
	cb := &CostBasis{
		Quantities: make(map[string]float64),
		AvgCost:    make(map[string]float64),
	}

	today := now.Format(isoDate)
	var inception time.Time

	trackInception := func(t time.Time) {
		if inception.IsZero() || t.Before(inception) {
			inception = t
		}
	}

	for _, h := range list {
		var totalQty, totalCost float64
		var usable bool

		for _, lot := range h.Lots {
			if lot.Quantity <= 0 {
				continue
			}
			usable = true
			totalQty += lot.Quantity
			totalCost += lot.Quantity * lot.Price

			eventDate := today
			if t, ok := parseLotDate(lot.Date); ok {
				eventDate = t.Format(isoDate)
				trackInception(t)
			}
			cb.Events = append(cb.Events, AcquisitionEvent{
				Date:     eventDate,
				Symbol:   h.Symbol,
				Quantity: lot.Quantity,
				Price:    lot.Price,
			})
		}

		if !usable {
			totalQty = h.LegacyQuantity
			totalCost = h.LegacyQuantity * h.LegacyAveragePrice

			eventDate := today
			if t, ok := parseLotDate(h.CreatedAt); ok {
				eventDate = t.Format(isoDate)
				trackInception(t)
			}
			cb.Events = append(cb.Events, AcquisitionEvent{
				Date:     eventDate,
				Symbol:   h.Symbol,
				Quantity: h.LegacyQuantity,
				Price:    h.LegacyAveragePrice,
			})
		}

		cb.Quantities[h.Symbol] += totalQty
		if totalQty > 0 {
			cb.AvgCost[h.Symbol] = totalCost / totalQty
		}
	}

	sort.SliceStable(cb.Events, func(i, j int) bool {
		return cb.Events[i].Date < cb.Events[j].Date
	})

	if inception.IsZero() {
		inception = now
	}
	cb.Inception = inception

	return cb
}
