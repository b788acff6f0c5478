package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/voyager-erp/voyager-erp/internal/ledger/accounts"
	"github.com/voyager-erp/voyager-erp/internal/ledger/finmap"
	"github.com/voyager-erp/voyager-erp/internal/ledger/vouchers"
	"github.com/voyager-erp/voyager-erp/internal/observability"
	"github.com/voyager-erp/voyager-erp/internal/sequence"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SequenceHandler *sequence.Handler
	AccountsHandler *accounts.Handler
	VouchersHandler *vouchers.Handler
	FinMapHandler   *finmap.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Voyager defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/sequences", params.SequenceHandler.MountRoutes)
		api.Route("/accounts", params.AccountsHandler.MountRoutes)
		api.Route("/vouchers", params.VouchersHandler.MountRoutes)
		api.Route("/settings", params.FinMapHandler.MountRoutes)
	})

	return r
}
