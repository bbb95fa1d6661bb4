package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeDiscount(t *testing.T) {
	require.InDelta(t, 0.0, ComputeDiscount(100, DiscountNone, 50), 0.0001)
	require.InDelta(t, 15.0, ComputeDiscount(100, DiscountPercentage, 15), 0.0001)
	require.InDelta(t, 30.0, ComputeDiscount(100, DiscountAmount, 30), 0.0001)
}

func TestComputeDiscountClamped(t *testing.T) {
	// Never below zero, never above the subtotal.
	require.InDelta(t, 0.0, ComputeDiscount(100, DiscountAmount, -5), 0.0001)
	require.InDelta(t, 100.0, ComputeDiscount(100, DiscountAmount, 250), 0.0001)
	require.InDelta(t, 100.0, ComputeDiscount(100, DiscountPercentage, 150), 0.0001)
	require.InDelta(t, 0.0, ComputeDiscount(0, DiscountPercentage, 50), 0.0001)
}

func TestComputeSaleProfit(t *testing.T) {
	lines := []SaleLine{
		{ItemID: 1, Quantity: 2, Price: 10},
	}
	costs := func(itemID int64) (float64, bool) {
		if itemID == 1 {
			return 5, true
		}
		return 0, false
	}
	require.InDelta(t, 10.0, ComputeSaleProfit(lines, 0, costs), 0.0001)
}

func TestComputeSaleProfitAllocatesDiscountProportionally(t *testing.T) {
	lines := []SaleLine{
		{ItemID: 1, Quantity: 3, Price: 10}, // revenue 30
		{ItemID: 2, Quantity: 1, Price: 70}, // revenue 70
	}
	costs := func(itemID int64) (float64, bool) {
		switch itemID {
		case 1:
			return 6, true
		case 2:
			return 40, true
		}
		return 0, false
	}
	discount := 10.0
	profit := ComputeSaleProfit(lines, discount, costs)

	// No discount leakage: total profit equals total minus cost of goods.
	total := SubtotalOf(lines) - discount
	cogs := 3*6.0 + 1*40.0
	require.InDelta(t, total-cogs, profit, 0.0001)

	// Line shares: item 1 carries 30% of the discount, item 2 carries 70%.
	require.InDelta(t, (30-3)-18+(70-7)-40, profit, 0.0001)
}

func TestComputeSaleProfitMissingCost(t *testing.T) {
	lines := []SaleLine{
		{ItemID: 1, Quantity: 2, Price: 10},
		{ItemID: 99, Quantity: 1, Price: 50},
	}
	costs := func(itemID int64) (float64, bool) {
		if itemID == 1 {
			return 5, true
		}
		return 0, false
	}
	// The deleted item's line is ignored rather than failing the report.
	require.InDelta(t, 10.0, ComputeSaleProfit(lines, 0, costs), 0.0001)
}

func TestProrate(t *testing.T) {
	require.InDelta(t, 6.0, Prorate(10, 12, 20), 0.0001)
	require.InDelta(t, 0.0, Prorate(10, 5, 0), 0.0001)
}
