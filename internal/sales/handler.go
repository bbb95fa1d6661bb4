package sales

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

// Handler exposes sales, customers, returns and payments over JSON. Every
// mutation bumps the cache version so overview and report reads refresh.
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
	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/", h.addSale)
		r.Get("/{id}", h.getSale)
		r.Delete("/{id}", h.deleteSale)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.updateCustomer)
	})
	r.Post("/sales-returns", h.addSalesReturn)
	r.Post("/payments", h.addPayment)
}

func (h *Handler) addSale(w http.ResponseWriter, r *http.Request) {
	var req AddSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sale, err := h.service.AddSale(r.Context(), req)
	if err != nil {
		h.logger.Error("add sale", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	h.logActivity(r, "create", "sale", sale.SaleID, map[string]any{"total": sale.Total})
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteSale(r.Context(), id); err != nil {
		h.logger.Error("delete sale", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	h.logActivity(r, "delete", "sale", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListSalesRequest{Page: page, PerPage: perPage}
	if raw := q.Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return
		}
		req.CustomerID = &id
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return
		}
		req.DateFrom = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return
		}
		req.DateTo = &t
	}
	sales, pagination, err := h.service.ListSales(r.Context(), req)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sales":      sales,
		"pagination": pagination,
	})
}

func (h *Handler) addSalesReturn(w http.ResponseWriter, r *http.Request) {
	var req AddSalesReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ret, err := h.service.AddSalesReturn(r.Context(), req)
	if err != nil {
		h.logger.Error("add sales return", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	h.logActivity(r, "create", "sales_return", ret.ReturnID, map[string]any{"value": ret.TotalReturnValue})
	httpx.JSON(w, http.StatusCreated, ret)
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	var req AddPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.AddPayment(r.Context(), req)
	if err != nil {
		h.logger.Error("add payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	h.logActivity(r, "create", "payment", result.PaymentID, map[string]any{"amount": result.Amount})
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), req)
	if err != nil {
		h.logger.Error("create customer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	customer, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	customer, err := h.service.UpdateCustomer(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update customer", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListCustomersRequest{Page: page, PerPage: perPage}
	if search := q.Get("search"); search != "" {
		req.Search = &search
	}
	customers, pagination, err := h.service.ListCustomers(r.Context(), req)
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"customers":  customers,
		"pagination": pagination,
	})
}

func (h *Handler) logActivity(r *http.Request, action, entity, entityID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{Action: action, Entity: entity, EntityID: entityID, Meta: meta}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}

func (h *Handler) bump(r *http.Request) {
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("cache bump", slog.Any("error", err))
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrInvalidArgument
	}
	return id, nil
}
