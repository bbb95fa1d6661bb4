package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/khata-erp/khata-erp/internal/report"
)

// PDFExporter renders reports to PDF through a Gotenberg instance.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderMonthlyReport sends the report as HTML to Gotenberg and returns the
// PDF bytes.
func (p *PDFExporter) RenderMonthlyReport(ctx context.Context, r report.MonthlyReport) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html := buildHTML(r)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "report.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func buildHTML(r report.MonthlyReport) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .metric-label{text-align:left;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>Monthly Report – %s</h1>", templateEscape(r.Month)))

	b.WriteString("<section><h2>Profit</h2><table><tbody>")
	writeMetricRow(&b, "Profit From Paid Sales", r.ProfitFromPaidSales)
	writeMetricRow(&b, "Profit From Due Payments", r.ProfitFromDuePayments)
	writeMetricRow(&b, "Received Payments From Dues", r.ReceivedPaymentsFromDues)
	writeMetricRow(&b, "Total Profit", r.TotalProfit)
	writeMetricRow(&b, "Total Donations", r.TotalDonations)
	writeMetricRow(&b, "Total Expenses", r.TotalExpenses)
	writeMetricRow(&b, "Net Profit Or Loss", r.NetProfitOrLoss)
	b.WriteString("</tbody></table></section>")

	b.WriteString("<section><h2>Sales Breakdown</h2><table><tbody>")
	writeMetricRow(&b, "Paid", r.SalesBreakdown.Paid)
	writeMetricRow(&b, "Due", r.SalesBreakdown.Due)
	b.WriteString("</tbody></table></section>")

	b.WriteString("<section><h2>Cash Flow</h2><table><thead><tr><th>Source</th><th>Cash</th><th>Bank</th></tr></thead><tbody>")
	writeCashFlowRow(&b, "Sales", r.CashFlow.Sales)
	writeCashFlowRow(&b, "Due Payments", r.CashFlow.DuePayments)
	writeCashFlowRow(&b, "Donations", r.CashFlow.Donations)
	writeCashFlowRow(&b, "Expenses", r.CashFlow.Expenses)
	b.WriteString("</tbody></table></section>")

	b.WriteString("</body></html>")
	return b.String()
}

func writeMetricRow(b *strings.Builder, label string, value float64) {
	b.WriteString("<tr><td class=\"metric-label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(formatFloat(value))
	b.WriteString("</td></tr>")
}

func writeCashFlowRow(b *strings.Builder, label string, cb report.CashBank) {
	b.WriteString("<tr><td class=\"metric-label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(formatFloat(cb.Cash))
	b.WriteString("</td><td>")
	b.WriteString(formatFloat(cb.Bank))
	b.WriteString("</td></tr>")
}

func templateEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
