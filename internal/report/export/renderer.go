package export

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/khata-erp/khata-erp/internal/report"
)

// HTTPRenderer streams rendered report documents as downloads. Filenames get
// a short random suffix so repeated downloads never collide on disk.
type HTTPRenderer struct {
	PDF *PDFExporter
}

func (h *HTTPRenderer) RenderCSV(w http.ResponseWriter, r report.MonthlyReport, filename string) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", attachment(filename, "csv"))
	return WriteMonthlyReportCSV(w, r)
}

func (h *HTTPRenderer) RenderXLSX(w http.ResponseWriter, r report.MonthlyReport, filename string) error {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(filename, "xlsx"))
	return WriteMonthlyReportXLSX(w, r)
}

func (h *HTTPRenderer) RenderPDF(w http.ResponseWriter, req *http.Request, r report.MonthlyReport, filename string) error {
	if h.PDF == nil {
		http.Error(w, "pdf export not configured", http.StatusNotImplemented)
		return fmt.Errorf("pdf exporter not configured")
	}
	data, err := h.PDF.RenderMonthlyReport(req.Context(), r)
	if err != nil {
		http.Error(w, "pdf rendering failed", http.StatusBadGateway)
		return err
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(filename, "pdf"))
	_, err = w.Write(data)
	return err
}

func attachment(filename, ext string) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("attachment; filename=%s-%s.%s", filename, suffix, ext)
}
