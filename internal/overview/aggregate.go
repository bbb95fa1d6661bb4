package overview

import (
	"time"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/sales"
)

// Build folds a history snapshot into the financial position as of the
// cutoff (inclusive). Pure: no I/O, deterministic for a given snapshot.
func Build(snap Snapshot, asOf time.Time) Overview {
	o := Overview{AsOf: asOf, OfficeAssetsValue: snap.OfficeAssetsValue}

	add := func(method ledger.PaymentMethod, amount float64) {
		switch method {
		case ledger.MethodBank:
			o.Bank += amount
		default:
			o.Cash += amount
		}
	}

	for _, c := range snap.Capital {
		if c.Date.After(asOf) {
			continue
		}
		add(c.Method, c.Amount)
	}
	for _, d := range snap.Donations {
		if d.Date.After(asOf) {
			continue
		}
		add(d.Method, d.Amount)
	}
	for _, s := range snap.Sales {
		if s.Date.After(asOf) {
			continue
		}
		switch s.PaymentMethod {
		case ledger.MethodCash, ledger.MethodBank:
			add(s.PaymentMethod, s.Total)
		case ledger.MethodSplit:
			// Only the immediately paid portion is money in hand.
			paid := 0.0
			if s.AmountPaid != nil {
				paid = *s.AmountPaid
			}
			method := ledger.MethodCash
			if s.SplitPaymentMethod != nil {
				method = *s.SplitPaymentMethod
			}
			add(method, paid)
		}
	}
	for _, t := range snap.Transactions {
		if t.Purpose != dues.PurposeCustomerPayment || t.Status != dues.StatusPaid {
			continue
		}
		paidAt := t.CreatedAt
		if t.PaidAt != nil {
			paidAt = *t.PaidAt
		}
		if paidAt.After(asOf) {
			continue
		}
		method := ledger.MethodCash
		if t.PaymentMethod != nil {
			method = *t.PaymentMethod
		}
		add(method, t.Amount)
	}
	for _, e := range snap.Expenses {
		if e.Date.After(asOf) {
			continue
		}
		add(e.Method, -e.Amount)
	}
	for _, t := range snap.Transfers {
		if t.Date.After(asOf) {
			continue
		}
		add(t.From, -t.Amount)
		add(t.To, t.Amount)
	}

	o.StockValue = stockValue(snap, asOf)
	o.Receivables = receivables(snap, asOf)
	o.Payables = payables(snap.Transactions, asOf)

	o.TotalAssets = o.Cash + o.Bank + o.Receivables + o.StockValue + o.OfficeAssetsValue
	o.Equity = o.TotalAssets - o.Payables
	return o
}

// stockValue reconstructs per-item stock at the cutoff by reversing every
// movement that happened after it: quantities sold later are added back,
// quantities purchased or returned later are subtracted back.
func stockValue(snap Snapshot, asOf time.Time) float64 {
	reversal := make(map[int64]int)
	for _, s := range snap.Sales {
		if !s.Date.After(asOf) {
			continue
		}
		for _, line := range s.Lines {
			reversal[line.ItemID] += line.Quantity
		}
	}
	for _, p := range snap.Purchases {
		if !p.Date.After(asOf) {
			continue
		}
		for _, line := range p.Lines {
			reversal[line.ItemID] -= line.Quantity
		}
	}
	for _, r := range snap.Returns {
		if !r.Date.After(asOf) {
			continue
		}
		for _, line := range r.Lines {
			reversal[line.ItemID] -= line.Quantity
		}
	}

	var total float64
	for _, item := range snap.Items {
		stock := item.Stock + reversal[item.ID]
		if stock < 0 {
			// Items created after the cutoff end up negative; they did
			// not exist yet, so they carry no value.
			stock = 0
		}
		total += item.ProductionPrice * float64(stock)
	}
	return total
}

// receivables replays the due-balance arithmetic: opening balances, plus the
// deferred portion of every sale, minus customer payments, minus returns
// refunded against the due balance.
func receivables(snap Snapshot, asOf time.Time) float64 {
	var total float64
	for _, c := range snap.Customers {
		total += c.OpeningBalance
	}
	for _, s := range snap.Sales {
		if s.Date.After(asOf) {
			continue
		}
		total += saleDueDelta(s)
	}
	for _, t := range snap.Transactions {
		if t.Purpose != dues.PurposeCustomerPayment || t.Status != dues.StatusPaid {
			continue
		}
		paidAt := t.CreatedAt
		if t.PaidAt != nil {
			paidAt = *t.PaidAt
		}
		if paidAt.After(asOf) {
			continue
		}
		total -= t.Amount
	}
	for _, r := range snap.Returns {
		if r.Date.After(asOf) || r.RefundMethod != sales.RefundAdjustDue {
			continue
		}
		total -= r.Value
	}
	return total
}

// saleDueDelta mirrors the due-balance adjustment the sale mutator applied
// when the sale was written.
func saleDueDelta(s SaleRecord) float64 {
	switch s.PaymentMethod {
	case ledger.MethodDue:
		return s.Total
	case ledger.MethodSplit:
		paid := 0.0
		if s.AmountPaid != nil {
			paid = *s.AmountPaid
		}
		return s.Total - paid
	default:
		return s.CreditApplied
	}
}

func payables(transactions []dues.Transaction, asOf time.Time) float64 {
	var total float64
	for _, t := range transactions {
		if t.Type != dues.TypePayable || t.Status != dues.StatusPending {
			continue
		}
		if t.DueDate.After(asOf) {
			continue
		}
		total += t.Amount
	}
	return total
}
