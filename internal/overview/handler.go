package overview

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/khata-erp/khata-erp/internal/platform/httpx"
	"github.com/khata-erp/khata-erp/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.getOverview)
}

func (h *Handler) getOverview(w http.ResponseWriter, r *http.Request) {
	var asOf *time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidArgument)
			return
		}
		asOf = &t
	}
	result, err := h.service.GetAccountOverview(r.Context(), asOf)
	if err != nil {
		h.logger.Error("account overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
