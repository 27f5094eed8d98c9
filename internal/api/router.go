package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fastprodman/coinflip/internal/auth"
	"github.com/fastprodman/coinflip/internal/config"
	"github.com/fastprodman/coinflip/internal/infra/metrics"
	"github.com/fastprodman/coinflip/internal/services/admin"
	"github.com/fastprodman/coinflip/internal/services/coinflip"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/services/treasury"
)

// Deps is everything the HTTP surface is built from.
type Deps struct {
	Pools     *coinflip.Service
	Admin     *admin.Service
	Ledger    *ledger.Service
	Treasury  *treasury.Service
	Tokens    *auth.Tokens
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	RateLimit config.RateLimitConfig
	Units     Units
	Logger    *slog.Logger
}

// NewRouter registers all API endpoints on a chi router.
func NewRouter(d Deps) (http.Handler, error) {
	h := NewHandler(d)

	limiter, err := newRateLimiter(d.RateLimit.RPS, d.RateLimit.Burst)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(instrument(d.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Get("/config", h.GetConfigHandler)
		r.Get("/treasury", h.GetTreasuryHandler)
		r.Get("/accounts/{address}/balance", h.GetBalanceHandler)

		r.Get("/pools", h.ListPoolsHandler)
		r.Get("/pools/{poolId}", h.GetPoolHandler)
		r.Get("/pools/{poolId}/transfers", h.PoolTransfersHandler)
		r.Post("/pools/{poolId}/settle", h.SettlePoolHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d.Tokens))

			r.Put("/admin/config", h.UpdateConfigHandler)
			r.Post("/pools", h.CreatePoolHandler)
			r.Post("/pools/{poolId}/join", h.JoinPoolHandler)
			r.Post("/pools/{poolId}/cancel", h.CancelPoolHandler)
		})
	})

	return r, nil
}
