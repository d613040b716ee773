package pricing

import "github.com/shopspring/decimal"

// AddOnLine is one metered add-on in a quote. 0 <= Quantity <= MaxQuantity.
type AddOnLine struct {
	ID          AddOnID
	UnitPrice   decimal.Decimal
	Quantity    int
	MaxQuantity int
}

func (l AddOnLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DisplayQuantity converts storage blocks into gigabytes; other add-ons are seats.
func (l AddOnLine) DisplayQuantity() int {
	if l.ID == AddOnStorage {
		return l.Quantity * StorageBlockGB
	}
	return l.Quantity
}

// AddOnLines builds zero-quantity lines for every add-on the plan offers.
func AddOnLines(p Plan) []AddOnLine {
	lines := make([]AddOnLine, 0, len(p.AddOns))
	for _, id := range AddOnOrder {
		rate, ok := p.AddOns[id]
		if !ok {
			continue
		}
		lines = append(lines, AddOnLine{
			ID:          id,
			UnitPrice:   rate.UnitPrice,
			MaxQuantity: rate.MaxUnits,
		})
	}
	return lines
}

// SetQuantity clamps qty into [0, MaxQuantity] and stores it on the matching line.
// It reports whether a line with that id exists; unknown ids leave lines untouched.
func SetQuantity(lines []AddOnLine, id AddOnID, qty int) bool {
	for i := range lines {
		if lines[i].ID != id {
			continue
		}
		lines[i].Quantity = clamp(qty, 0, lines[i].MaxQuantity)
		return true
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
