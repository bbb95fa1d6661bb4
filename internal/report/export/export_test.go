package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/khata-erp/khata-erp/internal/report"
)

func sampleReport() report.MonthlyReport {
	return report.MonthlyReport{
		Month:               "2025-03",
		ProfitFromPaidSales: 10,
		TotalProfit:         10,
		TotalDonations:      4,
		TotalExpenses:       6,
		NetProfitOrLoss:     8,
	}
}

func TestWriteMonthlyReportCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteMonthlyReportCSV(buf, sampleReport()); err != nil {
		t.Fatalf("report csv error: %v", err)
	}
	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("expected data rows, got %d", len(records))
	}
	if records[1][0] != "Month" || records[1][1] != "2025-03" {
		t.Fatalf("unexpected first data row %v", records[1])
	}
}

func TestWriteMonthlyReportXLSX(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteMonthlyReportXLSX(buf, sampleReport()); err != nil {
		t.Fatalf("report xlsx error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("xlsx open error: %v", err)
	}
	defer func() { _ = f.Close() }()
	value, err := f.GetCellValue(sheetName, "B2")
	if err != nil {
		t.Fatalf("cell read error: %v", err)
	}
	if value != "2025-03" {
		t.Fatalf("unexpected month cell %q", value)
	}
}

func TestPDFExporterRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(4 << 10); err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	data, err := exporter.RenderMonthlyReport(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
}

func TestPDFExporterRequiresEndpoint(t *testing.T) {
	exporter := &PDFExporter{}
	if _, err := exporter.RenderMonthlyReport(context.Background(), sampleReport()); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
