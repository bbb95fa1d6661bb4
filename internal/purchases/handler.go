package purchases

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/khata-erp/khata-erp/internal/platform/cache"
	"github.com/khata-erp/khata-erp/internal/platform/httpx"
	"github.com/khata-erp/khata-erp/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	cache     *cache.Cache
	audit     *shared.AuditLogger
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, c *cache.Cache, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, cache: c, audit: audit, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPurchases)
	r.Post("/", h.addPurchase)
	r.Get("/{id}", h.getPurchase)
}

func (h *Handler) addPurchase(w http.ResponseWriter, r *http.Request) {
	var req AddPurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	purchase, err := h.service.AddPurchase(r.Context(), req)
	if err != nil {
		h.logger.Error("add purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("cache bump", slog.Any("error", err))
	}
	if h.audit != nil {
		if err := h.audit.Record(r.Context(), shared.AuditLog{
			Action:   "create",
			Entity:   "purchase",
			EntityID: purchase.PurchaseID,
			Meta:     map[string]any{"total": purchase.TotalAmount},
		}); err != nil {
			h.logger.Warn("audit record", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrInvalidArgument)
		return
	}
	purchase, err := h.service.GetPurchase(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListPurchasesRequest{Page: page, PerPage: perPage, Supplier: q.Get("supplier")}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return
		}
		req.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return
		}
		req.To = &t
	}
	purchases, pagination, err := h.service.ListPurchases(r.Context(), req)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"purchases":  purchases,
		"pagination": pagination,
	})
}
