package finance

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
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, c *cache.Cache) *Handler {
	return &Handler{logger: logger, service: service, cache: c, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.listExpenses)
		r.Post("/", h.addExpense)
		r.Delete("/{id}", h.deleteExpense)
	})
	r.Route("/donations", func(r chi.Router) {
		r.Get("/", h.listDonations)
		r.Post("/", h.addDonation)
		r.Delete("/{id}", h.deleteDonation)
	})
	r.Route("/transfers", func(r chi.Router) {
		r.Get("/", h.listTransfers)
		r.Post("/", h.addTransfer)
	})
	r.Route("/capital", func(r chi.Router) {
		r.Get("/", h.listCapital)
		r.Post("/", h.addCapital)
	})
}

func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	var req AddExpenseRequest
	if !h.decode(w, r, &req) {
		return
	}
	expense, err := h.service.AddExpense(r.Context(), req)
	if err != nil {
		h.logger.Error("add expense", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	httpx.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	req, ok := listParams(w, r)
	if !ok {
		return
	}
	expenses, pagination, err := h.service.ListExpenses(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": expenses, "pagination": pagination})
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrInvalidArgument)
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addDonation(w http.ResponseWriter, r *http.Request) {
	var req AddDonationRequest
	if !h.decode(w, r, &req) {
		return
	}
	donation, err := h.service.AddDonation(r.Context(), req)
	if err != nil {
		h.logger.Error("add donation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	httpx.JSON(w, http.StatusCreated, donation)
}

func (h *Handler) listDonations(w http.ResponseWriter, r *http.Request) {
	req, ok := listParams(w, r)
	if !ok {
		return
	}
	donations, pagination, err := h.service.ListDonations(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"donations": donations, "pagination": pagination})
}

func (h *Handler) deleteDonation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrInvalidArgument)
		return
	}
	if err := h.service.DeleteDonation(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addTransfer(w http.ResponseWriter, r *http.Request) {
	var req AddTransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	transfer, err := h.service.AddTransfer(r.Context(), req)
	if err != nil {
		h.logger.Error("add transfer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	httpx.JSON(w, http.StatusCreated, transfer)
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	req, ok := listParams(w, r)
	if !ok {
		return
	}
	transfers, pagination, err := h.service.ListTransfers(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transfers": transfers, "pagination": pagination})
}

func (h *Handler) addCapital(w http.ResponseWriter, r *http.Request) {
	var req AddCapitalRequest
	if !h.decode(w, r, &req) {
		return
	}
	capital, err := h.service.AddCapital(r.Context(), req)
	if err != nil {
		h.logger.Error("add capital contribution", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.bump(r)
	httpx.JSON(w, http.StatusCreated, capital)
}

func (h *Handler) listCapital(w http.ResponseWriter, r *http.Request) {
	req, ok := listParams(w, r)
	if !ok {
		return
	}
	capital, pagination, err := h.service.ListCapital(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"capital": capital, "pagination": pagination})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) bump(r *http.Request) {
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("cache bump", slog.Any("error", err))
	}
}

func listParams(w http.ResponseWriter, r *http.Request) (ListRequest, bool) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req := ListRequest{Page: page, PerPage: perPage}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return ListRequest{}, false
		}
		req.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return ListRequest{}, false
		}
		req.To = &t
	}
	return req, true
}
