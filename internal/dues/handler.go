package dues

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/khata-erp/khata-erp/internal/platform/httpx"
	"github.com/khata-erp/khata-erp/internal/shared"
)

// Handler exposes read-side views of the receivable/payable ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listTransactions)
	r.Get("/receivables/{customerID}", h.pendingReceivables)
	r.Get("/payables", h.pendingPayables)
	r.Get("/aging", h.receivableAging)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListTransactionsRequest{Page: page, PerPage: perPage}
	if raw := q.Get("type"); raw != "" {
		typ := TransactionType(raw)
		req.Type = &typ
	}
	if raw := q.Get("status"); raw != "" {
		status := TransactionStatus(raw)
		req.Status = &status
	}
	if raw := q.Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return
		}
		req.CustomerID = &id
	}
	transactions, pagination, err := h.service.ListTransactions(r.Context(), req)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"pagination":   pagination,
	})
}

func (h *Handler) pendingReceivables(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrInvalidArgument)
		return
	}
	receivables, err := h.service.PendingReceivables(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"receivables": receivables})
}

func (h *Handler) pendingPayables(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	payables, err := h.service.PendingPayables(r.Context(), asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payables": payables})
}

func (h *Handler) receivableAging(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	aging, err := h.service.ReceivableAging(r.Context(), asOf)
	if err != nil {
		h.logger.Error("receivable aging", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, aging)
}

func asOfParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidArgument)
		return time.Time{}, false
	}
	return t, true
}
