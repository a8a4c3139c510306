// Package httpserver wires the earnings core's HTTP surface (§6): admin
// promo config, rider earnings, payout generation/listing/mark-paid,
// rider enforcement, referral redemption, and the inbound PSP webhook.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/toyorcee/9thwaka-earnings-core/internal/apikey"
	"github.com/toyorcee/9thwaka-earnings-core/internal/config"
	"github.com/toyorcee/9thwaka-earnings-core/internal/enforcement"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/idempotency"
	"github.com/toyorcee/9thwaka-earnings-core/internal/logger"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/orders"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
	"github.com/toyorcee/9thwaka-earnings-core/internal/promoconfig"
	"github.com/toyorcee/9thwaka-earnings-core/internal/psp"
	"github.com/toyorcee/9thwaka-earnings-core/internal/ratelimit"
	"github.com/toyorcee/9thwaka-earnings-core/internal/referral"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
	"github.com/toyorcee/9thwaka-earnings-core/internal/versioning"
	"github.com/toyorcee/9thwaka-earnings-core/internal/wallet"
)

// Server wires handlers, middleware, and dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg              *config.Config
	promos           *promoconfig.Store
	referral         *referral.Engine
	payouts          *payout.Aggregator
	enforcement      *enforcement.Actions
	users            users.Repository
	orders           orders.Repository
	splitter         *orders.Splitter
	bus              *eventbus.Bus
	ledger           *wallet.Ledger
	pspHandler       *psp.Handler
	idempotencyStore idempotency.Store
	metrics          *metrics.Metrics
	logger           zerolog.Logger
	loc              *time.Location
	gracePeriod      time.Duration
}

// Deps bundles every dependency ConfigureRouter/New need, mirroring the
// teacher's flat-constructor-argument style but collected into one
// struct since this domain wires a wider set of engines than a single
// payment gateway client.
type Deps struct {
	Cfg              *config.Config
	Promos           *promoconfig.Store
	Referral         *referral.Engine
	Payouts          *payout.Aggregator
	Enforcement      *enforcement.Actions
	Users            users.Repository
	Orders           orders.Repository
	Splitter         *orders.Splitter
	Bus              *eventbus.Bus
	Ledger           *wallet.Ledger
	PSPHandler       *psp.Handler
	IdempotencyStore idempotency.Store
	Metrics          *metrics.Metrics
	Logger           zerolog.Logger
	Location         *time.Location
	GracePeriod      time.Duration
}

// New builds the HTTP server with a configured router.
func New(deps Deps) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			cfg:              deps.Cfg,
			promos:           deps.Promos,
			referral:         deps.Referral,
			payouts:          deps.Payouts,
			enforcement:      deps.Enforcement,
			users:            deps.Users,
			orders:           deps.Orders,
			splitter:         deps.Splitter,
			bus:              deps.Bus,
			ledger:           deps.Ledger,
			pspHandler:       deps.PSPHandler,
			idempotencyStore: deps.IdempotencyStore,
			metrics:          deps.Metrics,
			logger:           deps.Logger,
			loc:              deps.Location,
			gracePeriod:      deps.GracePeriod,
		},
		httpServer: &http.Server{
			Addr:         deps.Cfg.Server.Address,
			ReadTimeout:  deps.Cfg.Server.ReadTimeout.Duration,
			WriteTimeout: deps.Cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  deps.Cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	ConfigureRouter(router, deps)

	return s
}

// ConfigureRouter attaches earnings-core routes to an existing router.
func ConfigureRouter(router chi.Router, deps Deps) {
	if router == nil {
		return
	}

	h := handlers{
		cfg:              deps.Cfg,
		promos:           deps.Promos,
		referral:         deps.Referral,
		payouts:          deps.Payouts,
		enforcement:      deps.Enforcement,
		users:            deps.Users,
		orders:           deps.Orders,
		splitter:         deps.Splitter,
		bus:              deps.Bus,
		ledger:           deps.Ledger,
		pspHandler:       deps.PSPHandler,
		idempotencyStore: deps.IdempotencyStore,
		metrics:          deps.Metrics,
		logger:           deps.Logger,
		loc:              deps.Location,
		gracePeriod:      deps.GracePeriod,
	}

	if len(deps.Cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   deps.Cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"Location"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	router.Use(securityHeadersMiddleware)
	router.Use(middleware.RequestID)
	router.Use(logger.Middleware(deps.Logger))
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(versioning.Negotiation)

	apiKeyCfg := apikey.Config{AdminKey: deps.Cfg.AdminAPIKey}

	rateLimitCfg := ratelimit.Config{
		GlobalEnabled:   deps.Cfg.RateLimit.GlobalEnabled,
		GlobalLimit:     deps.Cfg.RateLimit.GlobalLimit,
		GlobalWindow:    deps.Cfg.RateLimit.GlobalWindow.Duration,
		GlobalBurst:     deps.Cfg.RateLimit.GlobalLimit / 10,
		ReferralEnabled: deps.Cfg.RateLimit.ReferralEnabled,
		ReferralLimit:   deps.Cfg.RateLimit.ReferralLimit,
		ReferralWindow:  deps.Cfg.RateLimit.ReferralWindow.Duration,
		ReferralBurst:   deps.Cfg.RateLimit.ReferralLimit / 6,
		PerIPEnabled:    deps.Cfg.RateLimit.PerIPEnabled,
		PerIPLimit:      deps.Cfg.RateLimit.PerIPLimit,
		PerIPWindow:     deps.Cfg.RateLimit.PerIPWindow.Duration,
		PerIPBurst:      deps.Cfg.RateLimit.PerIPLimit / 6,
		Metrics:         deps.Metrics,
	}
	router.Use(ratelimit.GlobalLimiter(rateLimitCfg))
	router.Use(ratelimit.IPLimiter(rateLimitCfg))

	prefix := deps.Cfg.Server.RoutePrefix
	idempotencyMW := idempotency.Middleware(deps.IdempotencyStore, 24*time.Hour)
	referralLimitMW := ratelimit.ReferralLimiter(rateLimitCfg)

	// Lightweight endpoints: health and metrics, 5s timeout.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get(prefix+"/health", h.health)
		r.With(adminMetricsAuth(deps.Cfg.Server.AdminMetricsAPIKey)).Handle(prefix+"/metrics", promhttp.Handler())
	})

	// Inbound PSP webhook: stable, unversioned path, own timeout.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post(prefix+"/webhooks/psp", h.pspHandler.ServeHTTP)
	})

	// Everything that reads or mutates domain state gets the longer
	// timeout: storage round trips, wallet credits, notification sends.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Group(func(admin chi.Router) {
			admin.Use(apikey.Middleware(apiKeyCfg))
			admin.Get(prefix+"/admin/promos", h.getPromos)
			admin.Get(prefix+"/admin/promos/history", h.getPromoHistory)
			admin.Put(prefix+"/admin/promos/referral", h.putReferralPromo)
			admin.Put(prefix+"/admin/promos/streak", h.putStreakPromo)
			admin.Put(prefix+"/admin/promos/gold-status", h.putGoldStatusPromo)
			admin.Put(prefix+"/admin/promos/toggle-all", h.putToggleAll)

			admin.With(idempotencyMW).Post(prefix+"/payouts/generate", h.generatePayouts)

			admin.Patch(prefix+"/payouts/admin/riders/{id}/unblock", h.unblockRider)
			admin.Patch(prefix+"/payouts/admin/riders/{id}/deactivate", h.deactivateRider)
			admin.Patch(prefix+"/payouts/admin/riders/{id}/reactivate", h.reactivateRider)

			// Order-lifecycle ingestion: dispatch/matching is out of scope
			// (Non-goals), so whatever upstream system owns assignment and
			// routing authenticates as admin and calls in here.
			admin.Post(prefix+"/internal/orders", h.createOrder)
			admin.Patch(prefix+"/internal/orders/{id}/accept", h.acceptOrder)
			admin.Patch(prefix+"/internal/orders/{id}/deliver", h.deliverOrder)
			admin.Patch(prefix+"/internal/orders/{id}/cancel", h.cancelOrder)
		})

		r.Get(prefix+"/rider/earnings", h.riderEarnings)
		r.Get(prefix+"/payouts", h.listPayouts)
		r.With(idempotencyMW).Patch(prefix+"/payouts/{id}/mark-paid", h.markPayoutPaid)

		r.With(referralLimitMW, idempotencyMW).Post(prefix+"/referral/use", h.useReferral)
		r.Get(prefix+"/referral/stats", h.referralStats)
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
