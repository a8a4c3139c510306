package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the earnings core.
type Metrics struct {
	// Commission split metrics (C3)
	CommissionSplitsTotal  *prometheus.CounterVec
	CommissionAmountTotal  *prometheus.CounterVec
	CommissionSplitFailed  *prometheus.CounterVec
	CommissionSplitLatency *prometheus.HistogramVec

	// Wallet ledger metrics (C2)
	WalletCreditsTotal *prometheus.CounterVec
	WalletDebitsTotal  *prometheus.CounterVec
	WalletAmountTotal  *prometheus.CounterVec

	// Payout metrics (C7)
	PayoutsGeneratedTotal prometheus.Counter
	PayoutsMarkedPaidTotal *prometheus.CounterVec
	PayoutAmountTotal     prometheus.Counter

	// Referral metrics (C4)
	ReferralRedemptionsTotal *prometheus.CounterVec

	// Streak metrics (C5)
	StreakBonusesTotal prometheus.Counter

	// Gold Status metrics (C6)
	GoldStatusUpgradesTotal prometheus.Counter

	// Enforcement metrics (C9)
	StrikesIssuedTotal      prometheus.Counter
	RidersBlockedTotal      prometheus.Counter
	RidersUnblockedTotal    prometheus.Counter
	RidersDeactivatedTotal  prometheus.Counter

	// PSP call metrics
	PSPCallsTotal   *prometheus.CounterVec
	PSPCallDuration *prometheus.HistogramVec
	PSPErrorsTotal  *prometheus.CounterVec

	// Notifier (webhook/callback) metrics
	NotifierDeliveriesTotal *prometheus.CounterVec
	NotifierRetriesTotal    *prometheus.CounterVec
	NotifierDLQTotal        *prometheus.CounterVec
	NotifierDuration        *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration     *prometheus.HistogramVec
	DBConnectionsActive prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		CommissionSplitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_commission_splits_total",
				Help: "Total number of order commission splits processed",
			},
			[]string{"status"},
		),
		CommissionAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_commission_amount_kobo_total",
				Help: "Total commission amount collected, in kobo",
			},
			[]string{"status"},
		),
		CommissionSplitFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_commission_split_failed_total",
				Help: "Total number of commission splits that failed",
			},
			[]string{"reason"},
		),
		CommissionSplitLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waka_commission_split_duration_seconds",
				Help:    "Time taken to compute and commit a commission split",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"status"},
		),

		WalletCreditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_wallet_credits_total",
				Help: "Total number of wallet credit entries, by reason",
			},
			[]string{"reason"},
		),
		WalletDebitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_wallet_debits_total",
				Help: "Total number of wallet debit entries, by reason",
			},
			[]string{"reason"},
		),
		WalletAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_wallet_amount_kobo_total",
				Help: "Total wallet ledger movement amount in kobo, by reason and direction",
			},
			[]string{"reason", "direction"},
		),

		PayoutsGeneratedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waka_payouts_generated_total",
				Help: "Total number of delivered orders upserted into payouts by the weekly generation sweep",
			},
		),
		PayoutsMarkedPaidTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_payouts_marked_paid_total",
				Help: "Total number of payouts marked paid, by actor",
			},
			[]string{"marked_by"},
		),
		PayoutAmountTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waka_payout_amount_kobo_total",
				Help: "Total payout amount marked paid, in kobo",
			},
		),

		ReferralRedemptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_referral_redemptions_total",
				Help: "Total number of referral code redemption attempts",
			},
			[]string{"status"},
		),

		StreakBonusesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waka_streak_bonuses_total",
				Help: "Total number of streak bonuses awarded",
			},
		),

		GoldStatusUpgradesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waka_gold_status_upgrades_total",
				Help: "Total number of riders upgraded to Gold status",
			},
		),

		StrikesIssuedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waka_strikes_issued_total",
				Help: "Total number of payout-window strikes issued",
			},
		),
		RidersBlockedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waka_riders_blocked_total",
				Help: "Total number of riders payment-blocked for an overdue payout",
			},
		),
		RidersUnblockedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waka_riders_unblocked_total",
				Help: "Total number of riders unblocked by an admin",
			},
		),
		RidersDeactivatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waka_riders_deactivated_total",
				Help: "Total number of riders deactivated, by the strike limit or by an admin",
			},
		),

		PSPCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_psp_calls_total",
				Help: "Total number of calls made to the payment service provider",
			},
			[]string{"operation"},
		),
		PSPCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waka_psp_call_duration_seconds",
				Help:    "Duration of PSP calls",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),
		PSPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_psp_errors_total",
				Help: "Total number of PSP call errors",
			},
			[]string{"operation", "error_type"},
		),

		NotifierDeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_notifier_deliveries_total",
				Help: "Total number of best-effort rider/admin notifications delivered",
			},
			[]string{"event_type", "status"},
		),
		NotifierRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_notifier_retries_total",
				Help: "Total number of notification retry attempts",
			},
			[]string{"event_type", "attempt"},
		),
		NotifierDLQTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_notifier_dlq_total",
				Help: "Total number of notifications sent to the dead-letter queue",
			},
			[]string{"event_type"},
		),
		NotifierDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waka_notifier_duration_seconds",
				Help:    "Time taken to deliver a notification",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"event_type"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waka_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"limit_type", "identifier"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waka_db_query_duration_seconds",
				Help:    "Database query duration (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"operation", "backend"},
		),
		DBConnectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "waka_db_connections_active",
				Help: "Number of active database connections",
			},
		),
	}
}

// ObserveCommissionSplit records a commission split attempt.
func (m *Metrics) ObserveCommissionSplit(status string, commissionKobo int64, duration time.Duration) {
	m.CommissionSplitsTotal.WithLabelValues(status).Inc()
	m.CommissionAmountTotal.WithLabelValues(status).Add(float64(commissionKobo))
	m.CommissionSplitLatency.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveCommissionSplitFailure records a failed commission split with reason.
func (m *Metrics) ObserveCommissionSplitFailure(reason string) {
	m.CommissionSplitFailed.WithLabelValues(reason).Inc()
}

// ObserveWalletEntry records a wallet ledger entry.
func (m *Metrics) ObserveWalletEntry(reason, direction string, amountKobo int64) {
	if direction == "credit" {
		m.WalletCreditsTotal.WithLabelValues(reason).Inc()
	} else {
		m.WalletDebitsTotal.WithLabelValues(reason).Inc()
	}
	m.WalletAmountTotal.WithLabelValues(reason, direction).Add(float64(amountKobo))
}

// ObservePayoutsGenerated records a weekly payout generation sweep.
func (m *Metrics) ObservePayoutsGenerated(count int) {
	m.PayoutsGeneratedTotal.Add(float64(count))
}

// ObservePayoutMarkedPaid records a payout marked paid.
func (m *Metrics) ObservePayoutMarkedPaid(markedBy string, amountKobo int64) {
	m.PayoutsMarkedPaidTotal.WithLabelValues(markedBy).Inc()
	m.PayoutAmountTotal.Add(float64(amountKobo))
}

// ObserveReferralRedemption records a referral code redemption attempt.
func (m *Metrics) ObserveReferralRedemption(status string) {
	m.ReferralRedemptionsTotal.WithLabelValues(status).Inc()
}

// ObserveStreakBonus records a streak bonus award.
func (m *Metrics) ObserveStreakBonus() {
	m.StreakBonusesTotal.Inc()
}

// ObserveGoldStatusUpgrade records a Gold Status upgrade.
func (m *Metrics) ObserveGoldStatusUpgrade() {
	m.GoldStatusUpgradesTotal.Inc()
}

// ObserveStrike records a strike issued by the enforcement sweep.
func (m *Metrics) ObserveStrike() {
	m.StrikesIssuedTotal.Inc()
}

// ObserveRiderBlocked records a rider block.
func (m *Metrics) ObserveRiderBlocked() {
	m.RidersBlockedTotal.Inc()
}

// ObserveRiderUnblocked records a rider unblock.
func (m *Metrics) ObserveRiderUnblocked() {
	m.RidersUnblockedTotal.Inc()
}

// ObserveRiderDeactivated records a rider deactivation.
func (m *Metrics) ObserveRiderDeactivated() {
	m.RidersDeactivatedTotal.Inc()
}

// ObservePSPCall records a call to the payment service provider.
func (m *Metrics) ObservePSPCall(operation string, duration time.Duration, err error) {
	m.PSPCallsTotal.WithLabelValues(operation).Inc()
	m.PSPCallDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if err != nil {
		errorType := "unknown"
		if errStr := err.Error(); errStr != "" {
			switch {
			case contains(errStr, "timeout"):
				errorType = "timeout"
			case contains(errStr, "rate limit"):
				errorType = "rate_limit"
			case contains(errStr, "connection"):
				errorType = "connection"
			case contains(errStr, "not found"):
				errorType = "not_found"
			default:
				errorType = "other"
			}
		}
		m.PSPErrorsTotal.WithLabelValues(operation, errorType).Inc()
	}
}

// ObserveNotifierDelivery records a notification delivery attempt.
func (m *Metrics) ObserveNotifierDelivery(eventType, status string, duration time.Duration, attempt int, sentToDLQ bool) {
	m.NotifierDeliveriesTotal.WithLabelValues(eventType, status).Inc()
	m.NotifierDuration.WithLabelValues(eventType).Observe(duration.Seconds())

	if attempt > 1 {
		m.NotifierRetriesTotal.WithLabelValues(eventType, formatAttempt(attempt)).Inc()
	}

	if sentToDLQ {
		m.NotifierDLQTotal.WithLabelValues(eventType).Inc()
	}
}

// ObserveRateLimit records a rate limit hit.
func (m *Metrics) ObserveRateLimit(limitType, identifier string) {
	m.RateLimitHitsTotal.WithLabelValues(limitType, identifier).Inc()
}

// ObserveDBQuery records a database query.
func (m *Metrics) ObserveDBQuery(operation, backend string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

// Helper functions
func contains(s, substr string) bool {
	return len(s) >= len(substr) && s[:len(substr)] == substr ||
		len(s) > len(substr) && contains(s[1:], substr)
}

func formatAttempt(attempt int) string {
	if attempt <= 5 {
		return string(rune('0' + attempt))
	}
	return "5+"
}
