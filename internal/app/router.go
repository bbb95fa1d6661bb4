package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khata-erp/khata-erp/internal/catalog"
	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/finance"
	"github.com/khata-erp/khata-erp/internal/observability"
	"github.com/khata-erp/khata-erp/internal/overview"
	"github.com/khata-erp/khata-erp/internal/purchases"
	"github.com/khata-erp/khata-erp/internal/report"
	"github.com/khata-erp/khata-erp/internal/sales"
	"github.com/khata-erp/khata-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	CatalogHandler   *catalog.Handler
	SalesHandler     *sales.Handler
	PurchasesHandler *purchases.Handler
	DuesHandler      *dues.Handler
	FinanceHandler   *finance.Handler
	OverviewHandler  *overview.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/items", params.CatalogHandler.MountRoutes)
		r.Group(params.SalesHandler.MountRoutes)
		r.Route("/purchases", params.PurchasesHandler.MountRoutes)
		r.Route("/transactions", params.DuesHandler.MountRoutes)
		r.Group(params.FinanceHandler.MountRoutes)
		r.Route("/overview", params.OverviewHandler.MountRoutes)
		r.Route("/reports", params.ReportHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
