// Package export renders finished reports and overview snapshots to CSV,
// XLSX and PDF. It consumes plain report data and owns no business logic.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/khata-erp/khata-erp/internal/overview"
	"github.com/khata-erp/khata-erp/internal/report"
)

// WriteMonthlyReportCSV serialises the monthly report as metric/value rows.
func WriteMonthlyReportCSV(w io.Writer, r report.MonthlyReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Month", r.Month},
		{"Profit From Paid Sales", formatFloat(r.ProfitFromPaidSales)},
		{"Profit From Due Payments", formatFloat(r.ProfitFromDuePayments)},
		{"Received Payments From Dues", formatFloat(r.ReceivedPaymentsFromDues)},
		{"Total Profit", formatFloat(r.TotalProfit)},
		{"Total Donations", formatFloat(r.TotalDonations)},
		{"Total Expenses", formatFloat(r.TotalExpenses)},
		{"Net Profit Or Loss", formatFloat(r.NetProfitOrLoss)},
		{"Sales Paid", formatFloat(r.SalesBreakdown.Paid)},
		{"Sales Due", formatFloat(r.SalesBreakdown.Due)},
		{"Cash Flow Sales (Cash)", formatFloat(r.CashFlow.Sales.Cash)},
		{"Cash Flow Sales (Bank)", formatFloat(r.CashFlow.Sales.Bank)},
		{"Cash Flow Due Payments (Cash)", formatFloat(r.CashFlow.DuePayments.Cash)},
		{"Cash Flow Due Payments (Bank)", formatFloat(r.CashFlow.DuePayments.Bank)},
		{"Cash Flow Donations (Cash)", formatFloat(r.CashFlow.Donations.Cash)},
		{"Cash Flow Donations (Bank)", formatFloat(r.CashFlow.Donations.Bank)},
		{"Cash Flow Expenses (Cash)", formatFloat(r.CashFlow.Expenses.Cash)},
		{"Cash Flow Expenses (Bank)", formatFloat(r.CashFlow.Expenses.Bank)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteOverviewCSV serialises the account overview as metric/value rows.
func WriteOverviewCSV(w io.Writer, o overview.Overview) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"As Of", o.AsOf.Format("2006-01-02")},
		{"Cash", formatFloat(o.Cash)},
		{"Bank", formatFloat(o.Bank)},
		{"Stock Value", formatFloat(o.StockValue)},
		{"Office Assets Value", formatFloat(o.OfficeAssetsValue)},
		{"Receivables", formatFloat(o.Receivables)},
		{"Payables", formatFloat(o.Payables)},
		{"Total Assets", formatFloat(o.TotalAssets)},
		{"Equity", formatFloat(o.Equity)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
