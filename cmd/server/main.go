// Command server runs the 9thwaka earnings core HTTP service: commission
// splitting, payout aggregation, referral/streak/gold-status promos,
// rider enforcement, and the payment-window sweep.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/toyorcee/9thwaka-earnings-core/internal/callbacks"
	"github.com/toyorcee/9thwaka-earnings-core/internal/circuitbreaker"
	"github.com/toyorcee/9thwaka-earnings-core/internal/config"
	"github.com/toyorcee/9thwaka-earnings-core/internal/dbpool"
	"github.com/toyorcee/9thwaka-earnings-core/internal/enforcement"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/goldstatus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/httpserver"
	"github.com/toyorcee/9thwaka-earnings-core/internal/idempotency"
	"github.com/toyorcee/9thwaka-earnings-core/internal/lifecycle"
	"github.com/toyorcee/9thwaka-earnings-core/internal/logger"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/orders"
	"github.com/toyorcee/9thwaka-earnings-core/internal/paymentwindow"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
	"github.com/toyorcee/9thwaka-earnings-core/internal/promoconfig"
	"github.com/toyorcee/9thwaka-earnings-core/internal/psp"
	"github.com/toyorcee/9thwaka-earnings-core/internal/referral"
	"github.com/toyorcee/9thwaka-earnings-core/internal/streak"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
	"github.com/toyorcee/9thwaka-earnings-core/internal/wallet"
)

// Build info, set by ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("server.env_load_failed")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("server.config_load_failed")
	}

	lg := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "earnings-core",
		Version:     Version,
		Environment: cfg.Logging.Environment,
	})
	lg.Info().Str("version", Version).Str("commit", Commit).Msg("server.starting")

	lifecycleMgr := lifecycle.NewManager()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		pool, err := dbpool.NewSharedPool(cfg.Postgres.URL, cfg.Postgres.Pool)
		if err != nil {
			lg.Fatal().Err(err).Msg("server.postgres_unreachable")
		}
		lifecycleMgr.Register("postgres-pool", pool)
	}

	documentBackend := "memory"
	if cfg.Mongo.URL != "" {
		documentBackend = "mongo"
	}

	usersRepo, err := users.NewRepository(users.RepositoryConfig{
		Backend:  documentBackend,
		MongoURL: cfg.Mongo.URL,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("server.users_repository_failed")
	}
	lifecycleMgr.Register("users-repository", usersRepo)

	ordersRepo, err := orders.NewRepository(orders.RepositoryConfig{
		Backend:  documentBackend,
		MongoURL: cfg.Mongo.URL,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("server.orders_repository_failed")
	}
	lifecycleMgr.Register("orders-repository", ordersRepo)

	walletRepo, err := wallet.NewRepository(wallet.RepositoryConfig{
		Backend:  documentBackend,
		MongoURL: cfg.Mongo.URL,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("server.wallet_repository_failed")
	}
	lifecycleMgr.Register("wallet-repository", walletRepo)

	referralRepo, err := referral.NewRepository(referral.RepositoryConfig{
		Backend:  documentBackend,
		MongoURL: cfg.Mongo.URL,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("server.referral_repository_failed")
	}
	lifecycleMgr.Register("referral-repository", referralRepo)

	blockedRepo, err := enforcement.NewRepository(enforcement.RepositoryConfig{
		Backend:  documentBackend,
		MongoURL: cfg.Mongo.URL,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("server.enforcement_repository_failed")
	}
	lifecycleMgr.Register("enforcement-repository", blockedRepo)

	// payout and promoconfig prefer Postgres when configured: both carry
	// an audit/ledger-shaped write path that fits a relational table
	// better than a document store. Without a Postgres URL they use the
	// same document backend as the other repositories.
	relationalBackend := documentBackend
	if cfg.Postgres.URL != "" {
		relationalBackend = "postgres"
	}

	payoutsRepo, err := payout.NewRepository(payout.RepositoryConfig{
		Backend:     relationalBackend,
		MongoURL:    cfg.Mongo.URL,
		Database:    cfg.Mongo.Database,
		PostgresURL: cfg.Postgres.URL,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("server.payout_repository_failed")
	}
	lifecycleMgr.Register("payout-repository", payoutsRepo)

	promosRepo, err := promoconfig.NewRepository(promoconfig.RepositoryConfig{
		Backend:     relationalBackend,
		MongoURL:    cfg.Mongo.URL,
		Database:    cfg.Mongo.Database,
		PostgresDSN: cfg.Postgres.URL,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("server.promoconfig_repository_failed")
	}
	lifecycleMgr.Register("promoconfig-repository", promosRepo)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	bus := eventbus.New()
	breakerMgr := circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker)

	notifierOpts := []callbacks.RetryOption{
		callbacks.WithMetrics(m),
		callbacks.WithRetryLogger(lg),
		callbacks.WithCircuitBreaker(breakerMgr),
	}
	if cfg.Callbacks.DLQEnabled {
		dlq, err := callbacks.NewFileDLQStore(cfg.Callbacks.DLQPath)
		if err != nil {
			lg.Fatal().Err(err).Msg("server.notifier_dlq_failed")
		}
		lifecycleMgr.Register("notifier-dlq", dlq)
		notifierOpts = append(notifierOpts, callbacks.WithDLQStore(dlq))
	}
	notifier := callbacks.NewRetryableClient(cfg.Callbacks, notifierOpts...)

	promos := promoconfig.NewStore(promosRepo)
	if cfg.PromoDefaults.SeedFile != "" {
		seed, err := promoconfig.LoadSeedFile(cfg.PromoDefaults.SeedFile)
		if err != nil {
			lg.Fatal().Err(err).Msg("server.promo_seed_load_failed")
		}
		if err := promoconfig.SeedIfEmpty(ctx, promosRepo, seed); err != nil {
			lg.Fatal().Err(err).Msg("server.promo_seed_failed")
		}
	}

	ledger := wallet.NewLedger(walletRepo, m)

	goldEngine := goldstatus.NewEngine(usersRepo, ordersRepo, promos, notifier, m)
	streakEngine := streak.NewEngine(usersRepo, ledger, promos, notifier, m)
	referralEngine := referral.NewEngine(referralRepo, usersRepo, ledger, promos, notifier, m)
	goldEngine.Subscribe(bus)
	streakEngine.Subscribe(bus)
	referralEngine.Subscribe(bus)

	splitter := orders.NewSplitter(ordersRepo, orders.StaticRateProvider(int(cfg.Commission.RatePercent)), goldEngine, bus, m)

	loc, err := time.LoadLocation(cfg.PayoutWindow.Timezone)
	if err != nil {
		lg.Fatal().Err(err).Str("timezone", cfg.PayoutWindow.Timezone).Msg("server.invalid_timezone")
	}

	payoutsAgg := payout.NewAggregator(payoutsRepo, ordersRepo, notifier, bus, m, loc)
	enforcementActions := enforcement.NewActions(usersRepo, blockedRepo, bus, notifier, m, cfg.PayoutWindow.MaxStrikes)
	pspHandler := psp.NewHandler(cfg.PSP.WebhookSecret, payoutsAgg, m)
	idempotencyStore := idempotency.NewMemoryStore()

	srv := httpserver.New(httpserver.Deps{
		Cfg:              cfg,
		Promos:           promos,
		Referral:         referralEngine,
		Payouts:          payoutsAgg,
		Enforcement:      enforcementActions,
		Users:            usersRepo,
		Orders:           ordersRepo,
		Splitter:         splitter,
		Bus:              bus,
		Ledger:           ledger,
		PSPHandler:       pspHandler,
		IdempotencyStore: idempotencyStore,
		Metrics:          m,
		Logger:           lg,
		Location:         loc,
		GracePeriod:      time.Duration(cfg.PayoutWindow.GracePeriodHours) * time.Hour,
	})

	sweep := paymentwindow.NewSweep(
		payoutsRepo, usersRepo, enforcementActions, bus, notifier, loc,
		time.Duration(cfg.PayoutWindow.GracePeriodHours)*time.Hour,
		time.Duration(cfg.PayoutWindow.StrikeWindowHours)*time.Hour,
		time.Duration(cfg.PayoutWindow.EnforcementTickMinutes)*time.Minute,
	)
	go sweep.Run(ctx)
	go runWeeklyPayoutGeneration(ctx, lg, payoutsAgg, loc)

	go func() {
		lg.Info().Str("address", cfg.Server.Address).Msg("server.listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server.listen_failed")
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace.Duration)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("server.http_shutdown_error")
	}
	if err := lifecycleMgr.Close(); err != nil {
		lg.Error().Err(err).Msg("server.resource_shutdown_error")
	}
	lg.Info().Msg("server.stopped")
}

// runWeeklyPayoutGeneration generates the current platform week's
// RiderPayout rows on a daily tick. GeneratePayoutsForWeek is itself
// idempotent (aggregator_test.go: a repeat call for the same week is a
// no-op), so a daily tick just needs to keep calling it rather than try
// to land exactly once per week boundary.
func runWeeklyPayoutGeneration(ctx context.Context, lg zerolog.Logger, agg *payout.Aggregator, loc *time.Location) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	generate := func() {
		weekStart, _ := payout.GetWeekRange(time.Now().In(loc), loc)
		n, err := agg.GeneratePayoutsForWeek(ctx, weekStart)
		if err != nil {
			lg.Error().Err(err).Time("week_start", weekStart).Msg("server.weekly_payout_generation_failed")
			return
		}
		lg.Info().Int("orders_processed", n).Time("week_start", weekStart).Msg("server.weekly_payout_generation_tick")
	}

	generate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			generate()
		}
	}
}
