// Package report derives the monthly profit and cash-flow report from a
// month's slice of history. The generator is pure; the service around it
// fetches the slices and caches the result.
package report

import (
	"time"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
)

// SaleDetail is the sale view the generator needs: lines for profit math,
// money fields for proration and cash-flow splits.
type SaleDetail struct {
	ID                 int64
	Date               time.Time
	Lines              []ledger.SaleLine
	Subtotal           float64
	Discount           float64
	Total              float64
	PaymentMethod      ledger.PaymentMethod
	AmountPaid         *float64
	SplitPaymentMethod *ledger.PaymentMethod
	CreditApplied      float64
}

// MoneyRecord is a dated cash/bank movement (expense or donation).
type MoneyRecord struct {
	Date   time.Time
	Amount float64
	Method ledger.PaymentMethod
}

// Input is everything GenerateMonthlyReport folds over. Transactions holds
// the receivable entries settled in the month; PriorSales resolves the
// original sale for settled dues, which may predate the month.
type Input struct {
	Year         int
	Month        time.Month
	Sales        []SaleDetail
	PriorSales   map[int64]SaleDetail
	Expenses     []MoneyRecord
	Donations    []MoneyRecord
	Transactions []dues.Transaction
	Costs        ledger.CostLookup
}

// CashBank splits an amount by where the money moved.
type CashBank struct {
	Cash float64 `json:"cash"`
	Bank float64 `json:"bank"`
}

func (cb *CashBank) add(method ledger.PaymentMethod, amount float64) {
	if method == ledger.MethodBank {
		cb.Bank += amount
		return
	}
	cb.Cash += amount
}

type SalesBreakdown struct {
	Paid float64 `json:"paid"`
	Due  float64 `json:"due"`
}

type CashFlow struct {
	Sales       CashBank `json:"sales"`
	DuePayments CashBank `json:"due_payments"`
	Donations   CashBank `json:"donations"`
	Expenses    CashBank `json:"expenses"`
}

type MonthlyReport struct {
	Month                    string         `json:"month"`
	ProfitFromPaidSales      float64        `json:"profit_from_paid_sales"`
	ProfitFromDuePayments    float64        `json:"profit_from_due_payments"`
	ReceivedPaymentsFromDues float64        `json:"received_payments_from_dues"`
	TotalProfit              float64        `json:"total_profit"`
	TotalDonations           float64        `json:"total_donations"`
	TotalExpenses            float64        `json:"total_expenses"`
	NetProfitOrLoss          float64        `json:"net_profit_or_loss"`
	SalesBreakdown           SalesBreakdown `json:"sales_breakdown"`
	CashFlow                 CashFlow       `json:"cash_flow"`
}
