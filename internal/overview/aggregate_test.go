package overview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/sales"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC)
}

func endOfDay(d int) time.Time {
	return time.Date(2025, 3, d, 23, 59, 59, 999999999, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestBuildCashAndBank(t *testing.T) {
	snap := Snapshot{
		Capital: []MoneyRecord{{Date: day(1), Amount: 1000, Method: ledger.MethodBank}},
		Donations: []MoneyRecord{
			{Date: day(2), Amount: 100, Method: ledger.MethodCash},
		},
		Sales: []SaleRecord{
			{Date: day(3), Total: 200, PaymentMethod: ledger.MethodCash},
			{Date: day(3), Total: 300, PaymentMethod: ledger.MethodBank},
			{Date: day(4), Total: 100, PaymentMethod: ledger.MethodSplit, AmountPaid: ptr(60.0)},
			{Date: day(4), Total: 500, PaymentMethod: ledger.MethodDue},
		},
		Expenses: []MoneyRecord{
			{Date: day(5), Amount: 50, Method: ledger.MethodCash},
		},
		Transfers: []TransferRecord{
			{Date: day(6), Amount: 100, From: ledger.MethodCash, To: ledger.MethodBank},
		},
	}
	o := Build(snap, endOfDay(31))
	// cash: 100 + 200 + 60 - 50 - 100 = 210; bank: 1000 + 300 + 100 = 1400
	require.InDelta(t, 210.0, o.Cash, 0.0001)
	require.InDelta(t, 1400.0, o.Bank, 0.0001)
}

func TestBuildCutoffExcludesLaterRecords(t *testing.T) {
	snap := Snapshot{
		Sales: []SaleRecord{
			{Date: day(3), Total: 200, PaymentMethod: ledger.MethodCash},
			{Date: day(20), Total: 999, PaymentMethod: ledger.MethodCash},
		},
	}
	o := Build(snap, endOfDay(10))
	require.InDelta(t, 200.0, o.Cash, 0.0001)
}

func TestBuildStockValueReversesLaterMovements(t *testing.T) {
	snap := Snapshot{
		Items: []ItemState{{ID: 1, ProductionPrice: 5, Stock: 10}},
		Sales: []SaleRecord{
			// Sold after the cutoff: the 4 units were still on hand.
			{Date: day(20), Total: 40, PaymentMethod: ledger.MethodCash, Lines: []QuantityLine{{ItemID: 1, Quantity: 4}}},
		},
		Purchases: []PurchaseRecord{
			// Bought after the cutoff: the 6 units were not there yet.
			{Date: day(25), Lines: []QuantityLine{{ItemID: 1, Quantity: 6}}},
		},
	}
	o := Build(snap, endOfDay(10))
	// as-of stock = 10 + 4 - 6 = 8
	require.InDelta(t, 40.0, o.StockValue, 0.0001)
}

func TestBuildStockValueClampsItemsCreatedLater(t *testing.T) {
	snap := Snapshot{
		Items: []ItemState{{ID: 1, ProductionPrice: 5, Stock: 6}},
		Purchases: []PurchaseRecord{
			{Date: day(25), Lines: []QuantityLine{{ItemID: 1, Quantity: 6}}},
		},
	}
	o := Build(snap, endOfDay(10))
	require.InDelta(t, 0.0, o.StockValue, 0.0001)
}

func TestBuildReceivablesReplay(t *testing.T) {
	paidAt := day(12)
	method := ledger.MethodCash
	snap := Snapshot{
		Customers: []CustomerState{{ID: 1, OpeningBalance: 100}},
		Sales: []SaleRecord{
			{Date: day(3), Total: 500, PaymentMethod: ledger.MethodDue},
			{Date: day(4), Total: 100, PaymentMethod: ledger.MethodSplit, AmountPaid: ptr(60.0)},
			{Date: day(5), Total: 200, PaymentMethod: ledger.MethodCash},
		},
		Transactions: []dues.Transaction{
			{Purpose: dues.PurposeCustomerPayment, Status: dues.StatusPaid, Amount: 150, PaymentMethod: &method, PaidAt: &paidAt, CreatedAt: paidAt},
		},
		Returns: []ReturnRecord{
			{Date: day(15), Value: 30, RefundMethod: sales.RefundAdjustDue},
			// Cash refunds do not touch the due balance.
			{Date: day(16), Value: 99, RefundMethod: sales.RefundCash},
		},
	}
	o := Build(snap, endOfDay(31))
	// 100 + 500 + 40 - 150 - 30 = 460
	require.InDelta(t, 460.0, o.Receivables, 0.0001)
}

func TestBuildPayablesPendingOnly(t *testing.T) {
	snap := Snapshot{
		Transactions: []dues.Transaction{
			{Type: dues.TypePayable, Status: dues.StatusPending, Amount: 80, DueDate: day(10)},
			{Type: dues.TypePayable, Status: dues.StatusPaid, Amount: 40, DueDate: day(10)},
			{Type: dues.TypePayable, Status: dues.StatusPending, Amount: 70, DueDate: day(25)},
			{Type: dues.TypeReceivable, Status: dues.StatusPending, Amount: 60, DueDate: day(10)},
		},
	}
	o := Build(snap, endOfDay(15))
	require.InDelta(t, 80.0, o.Payables, 0.0001)
}

func TestBuildEquity(t *testing.T) {
	snap := Snapshot{
		Items:             []ItemState{{ID: 1, ProductionPrice: 5, Stock: 10}},
		Capital:           []MoneyRecord{{Date: day(1), Amount: 1000, Method: ledger.MethodCash}},
		OfficeAssetsValue: 200,
		Transactions: []dues.Transaction{
			{Type: dues.TypePayable, Status: dues.StatusPending, Amount: 300, DueDate: day(5)},
		},
	}
	o := Build(snap, endOfDay(31))
	require.InDelta(t, 1000.0, o.Cash, 0.0001)
	require.InDelta(t, 50.0, o.StockValue, 0.0001)
	require.InDelta(t, 1250.0, o.TotalAssets, 0.0001)
	require.InDelta(t, 950.0, o.Equity, 0.0001)
}

func TestBuildDueBalanceMatchesMutatorReplay(t *testing.T) {
	// The receivables formula must agree with the incremental due-balance
	// arithmetic the sale mutator applies.
	paidAt := day(20)
	method := ledger.MethodBank
	snap := Snapshot{
		Customers: []CustomerState{{ID: 1, OpeningBalance: 0}},
		Sales: []SaleRecord{
			{Date: day(3), Total: 20, PaymentMethod: ledger.MethodSplit, AmountPaid: ptr(12.0)},
			{Date: day(5), Total: 30, PaymentMethod: ledger.MethodDue},
		},
		Transactions: []dues.Transaction{
			{Purpose: dues.PurposeCustomerPayment, Status: dues.StatusPaid, Amount: 25, PaymentMethod: &method, PaidAt: &paidAt, CreatedAt: paidAt},
		},
	}
	o := Build(snap, endOfDay(31))
	// Incremental: +8 (split remainder) +30 (due) -25 (payment) = 13
	require.InDelta(t, 13.0, o.Receivables, 0.0001)
}
