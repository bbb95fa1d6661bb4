package report

import (
	"fmt"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
)

// GenerateMonthlyReport computes realized profit and cash flow for one
// month. Pure: deterministic for a given input, no I/O. Sales referencing
// unknown items contribute zero profit rather than failing the report.
func GenerateMonthlyReport(in Input) MonthlyReport {
	r := MonthlyReport{Month: fmt.Sprintf("%04d-%02d", in.Year, int(in.Month))}

	for _, sale := range in.Sales {
		profit := ledger.ComputeSaleProfit(sale.Lines, sale.Discount, in.Costs)
		switch sale.PaymentMethod {
		case ledger.MethodCash, ledger.MethodBank:
			r.ProfitFromPaidSales += profit
			r.SalesBreakdown.Paid += sale.Total
			r.CashFlow.Sales.add(sale.PaymentMethod, sale.Total)
		case ledger.MethodSplit:
			paid := 0.0
			if sale.AmountPaid != nil {
				paid = *sale.AmountPaid
			}
			// Only the realized fraction of the profit counts this month;
			// the rest is recognized when the due is settled.
			r.ProfitFromPaidSales += ledger.Prorate(profit, paid, sale.Total)
			r.SalesBreakdown.Paid += paid
			r.SalesBreakdown.Due += sale.Total - paid
			method := ledger.MethodCash
			if sale.SplitPaymentMethod != nil {
				method = *sale.SplitPaymentMethod
			}
			r.CashFlow.Sales.add(method, paid)
		case ledger.MethodDue:
			r.SalesBreakdown.Due += sale.Total
		}
	}

	for _, t := range in.Transactions {
		if t.Status != dues.StatusPaid || t.Type != dues.TypeReceivable {
			continue
		}
		switch t.Purpose {
		case dues.PurposeCustomerPayment:
			r.ReceivedPaymentsFromDues += t.Amount
			method := ledger.MethodCash
			if t.PaymentMethod != nil {
				method = *t.PaymentMethod
			}
			r.CashFlow.DuePayments.add(method, t.Amount)
		case dues.PurposeSaleDue:
			// A settled due linked to an earlier sale releases a share of
			// that sale's profit, prorated by how much of the outstanding
			// due this payment covered.
			if t.SaleID == nil {
				continue
			}
			sale, ok := in.PriorSales[*t.SaleID]
			if !ok {
				continue
			}
			paid := 0.0
			if sale.AmountPaid != nil {
				paid = *sale.AmountPaid
			}
			outstanding := sale.Total - paid
			if outstanding <= 0 {
				// Zero baseline: nothing was deferred, so no profit share.
				continue
			}
			profit := ledger.ComputeSaleProfit(sale.Lines, sale.Discount, in.Costs)
			r.ProfitFromDuePayments += ledger.Prorate(profit, t.Amount, outstanding)
		}
	}

	for _, d := range in.Donations {
		r.TotalDonations += d.Amount
		r.CashFlow.Donations.add(d.Method, d.Amount)
	}
	for _, e := range in.Expenses {
		r.TotalExpenses += e.Amount
		r.CashFlow.Expenses.add(e.Method, e.Amount)
	}

	r.TotalProfit = r.ProfitFromPaidSales + r.ProfitFromDuePayments
	r.NetProfitOrLoss = r.TotalProfit + r.TotalDonations - r.TotalExpenses
	return r
}
