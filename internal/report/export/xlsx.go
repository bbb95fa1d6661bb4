package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/khata-erp/khata-erp/internal/report"
)

const sheetName = "Sheet1"

// WriteMonthlyReportXLSX renders the monthly report as a one-sheet workbook.
func WriteMonthlyReportXLSX(w io.Writer, r report.MonthlyReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	setCell := func(cell string, value interface{}) {
		_ = f.SetCellValue(sheetName, cell, value)
	}

	setCell("A1", "Metric")
	setCell("B1", "Value")

	rows := []struct {
		label string
		value interface{}
	}{
		{"Month", r.Month},
		{"Profit From Paid Sales", r.ProfitFromPaidSales},
		{"Profit From Due Payments", r.ProfitFromDuePayments},
		{"Received Payments From Dues", r.ReceivedPaymentsFromDues},
		{"Total Profit", r.TotalProfit},
		{"Total Donations", r.TotalDonations},
		{"Total Expenses", r.TotalExpenses},
		{"Net Profit Or Loss", r.NetProfitOrLoss},
		{"Sales Paid", r.SalesBreakdown.Paid},
		{"Sales Due", r.SalesBreakdown.Due},
		{"Cash Flow Sales (Cash)", r.CashFlow.Sales.Cash},
		{"Cash Flow Sales (Bank)", r.CashFlow.Sales.Bank},
		{"Cash Flow Due Payments (Cash)", r.CashFlow.DuePayments.Cash},
		{"Cash Flow Due Payments (Bank)", r.CashFlow.DuePayments.Bank},
		{"Cash Flow Donations (Cash)", r.CashFlow.Donations.Cash},
		{"Cash Flow Donations (Bank)", r.CashFlow.Donations.Bank},
		{"Cash Flow Expenses (Cash)", r.CashFlow.Expenses.Cash},
		{"Cash Flow Expenses (Bank)", r.CashFlow.Expenses.Bank},
	}
	for i, row := range rows {
		setCell("A"+fmt.Sprint(i+2), row.label)
		setCell("B"+fmt.Sprint(i+2), row.value)
	}

	return f.Write(w)
}
