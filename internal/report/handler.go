package report

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/khata-erp/khata-erp/internal/platform/httpx"
	"github.com/khata-erp/khata-erp/internal/shared"
)

// Renderer turns a finished report into a downloadable document.
type Renderer interface {
	RenderCSV(w http.ResponseWriter, r MonthlyReport, filename string) error
	RenderXLSX(w http.ResponseWriter, r MonthlyReport, filename string) error
	RenderPDF(w http.ResponseWriter, req *http.Request, r MonthlyReport, filename string) error
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer Renderer
}

func NewHandler(logger *slog.Logger, service *Service, renderer Renderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/monthly", h.getMonthlyReport)
}

func (h *Handler) getMonthlyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidArgument)
		return
	}
	monthNum, err := strconv.Atoi(q.Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		httpx.RespondError(w, shared.ErrInvalidArgument)
		return
	}
	month := time.Month(monthNum)

	result, err := h.service.GetMonthlyReport(r.Context(), year, month)
	if err != nil {
		h.logger.Error("monthly report", slog.Any("error", err), slog.Int("year", year), slog.Int("month", monthNum))
		httpx.RespondError(w, err)
		return
	}

	format := q.Get("format")
	if format == "" || format == "json" {
		httpx.JSON(w, http.StatusOK, result)
		return
	}
	if h.renderer == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Export Unavailable", "no renderer configured")
		return
	}

	filename := "report-" + result.Month
	switch format {
	case "csv":
		err = h.renderer.RenderCSV(w, *result, filename)
	case "xlsx":
		err = h.renderer.RenderXLSX(w, *result, filename)
	case "pdf":
		err = h.renderer.RenderPDF(w, r, *result, filename)
	default:
		httpx.RespondError(w, shared.ErrInvalidArgument)
		return
	}
	if err != nil {
		h.logger.Error("render report", slog.Any("error", err), slog.String("format", format))
	}
}
