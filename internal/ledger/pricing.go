// Package ledger holds the pure pricing and profit primitives shared by the
// sales mutator and the monthly report generator. No I/O happens here.
package ledger

// DiscountType enumerates supported sale discount modes.
type DiscountType string

const (
	// DiscountNone applies no discount.
	DiscountNone DiscountType = "none"
	// DiscountPercentage interprets the value as a percentage of the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountAmount interprets the value as a flat amount.
	DiscountAmount DiscountType = "amount"
)

// SaleLine describes one sold line for pricing purposes.
type SaleLine struct {
	ItemID   int64
	Quantity int
	Price    float64
}

// Subtotal returns quantity times unit price.
func (l SaleLine) Subtotal() float64 {
	return float64(l.Quantity) * l.Price
}

// CostLookup resolves an item's unit production cost. The second return is
// false when the item is unknown, e.g. deleted after the sale.
type CostLookup func(itemID int64) (float64, bool)

// ComputeDiscount returns the discount amount for a subtotal. The result is
// clamped to [0, subtotal]; an oversized flat discount never produces a
// negative total.
func ComputeDiscount(subtotal float64, typ DiscountType, value float64) float64 {
	var discount float64
	switch typ {
	case DiscountPercentage:
		discount = subtotal * value / 100
	case DiscountAmount:
		discount = value
	default:
		return 0
	}
	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// SubtotalOf sums line subtotals.
func SubtotalOf(lines []SaleLine) float64 {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Subtotal()
	}
	return subtotal
}

// ComputeSaleProfit derives the profit of a sale by allocating the sale-level
// discount proportionally across lines by revenue share. A line whose cost is
// unknown contributes zero profit rather than failing the computation.
func ComputeSaleProfit(lines []SaleLine, discount float64, costs CostLookup) float64 {
	subtotal := SubtotalOf(lines)
	var profit float64
	for _, line := range lines {
		cost, ok := costs(line.ItemID)
		if !ok {
			continue
		}
		lineSubtotal := line.Subtotal()
		var discountShare float64
		if subtotal > 0 {
			discountShare = discount * (lineSubtotal / subtotal)
		}
		profit += (lineSubtotal - discountShare) - cost*float64(line.Quantity)
	}
	return profit
}

// Prorate scales value by numerator/denominator, guarding against a zero
// baseline. Used to recognise only the realized fraction of a sale's profit.
func Prorate(value, numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return value * (numerator / denominator)
}
