package cart

import "github.com/shopspring/decimal"

// Aggregate holds the cart totals derived from a full line set.
type Aggregate struct {
	TotalQuantity int             `json:"totalQuantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// ComputeAggregate recomputes totals from scratch; totals are never patched.
func ComputeAggregate(lines []Line) Aggregate {
	agg := Aggregate{TotalPrice: decimal.Zero}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		agg.TotalQuantity += line.Quantity
		agg.TotalPrice = agg.TotalPrice.Add(ResolvePrice(line).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return agg
}
