package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInitialization(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("metrics collector should not be nil")
	}

	if m.CommissionSplitsTotal == nil {
		t.Error("CommissionSplitsTotal should be initialized")
	}
	if m.WalletCreditsTotal == nil {
		t.Error("WalletCreditsTotal should be initialized")
	}
	if m.PayoutsGeneratedTotal == nil {
		t.Error("PayoutsGeneratedTotal should be initialized")
	}
	if m.ReferralRedemptionsTotal == nil {
		t.Error("ReferralRedemptionsTotal should be initialized")
	}
	if m.PSPCallsTotal == nil {
		t.Error("PSPCallsTotal should be initialized")
	}
	if m.NotifierDeliveriesTotal == nil {
		t.Error("NotifierDeliveriesTotal should be initialized")
	}
}

func TestObserveCommissionSplit(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveCommissionSplit("success", 150, 10*time.Millisecond)

	count := promtest.ToFloat64(m.CommissionSplitsTotal.WithLabelValues("success"))
	if count != 1 {
		t.Errorf("expected 1 commission split, got %.0f", count)
	}

	amount := promtest.ToFloat64(m.CommissionAmountTotal.WithLabelValues("success"))
	if amount != 150 {
		t.Errorf("expected commission amount 150 kobo, got %.0f", amount)
	}
}

func TestObserveCommissionSplitFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveCommissionSplitFailure("insufficient_funds")

	count := promtest.ToFloat64(m.CommissionSplitFailed.WithLabelValues("insufficient_funds"))
	if count != 1 {
		t.Errorf("expected 1 failed split, got %.0f", count)
	}
}

func TestObserveWalletEntry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveWalletEntry("order_commission", "credit", 5000)

	count := promtest.ToFloat64(m.WalletCreditsTotal.WithLabelValues("order_commission"))
	if count != 1 {
		t.Errorf("expected 1 wallet credit, got %.0f", count)
	}

	amount := promtest.ToFloat64(m.WalletAmountTotal.WithLabelValues("order_commission", "credit"))
	if amount != 5000 {
		t.Errorf("expected wallet amount 5000 kobo, got %.0f", amount)
	}
}

func TestObservePayoutsGenerated(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObservePayoutsGenerated(42)

	count := promtest.ToFloat64(m.PayoutsGeneratedTotal)
	if count != 42 {
		t.Errorf("expected 42 payouts generated, got %.0f", count)
	}
}

func TestObservePayoutMarkedPaid(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObservePayoutMarkedPaid("admin", 12000)

	count := promtest.ToFloat64(m.PayoutsMarkedPaidTotal.WithLabelValues("admin"))
	if count != 1 {
		t.Errorf("expected 1 payout marked paid, got %.0f", count)
	}

	amount := promtest.ToFloat64(m.PayoutAmountTotal)
	if amount != 12000 {
		t.Errorf("expected payout amount 12000 kobo, got %.0f", amount)
	}
}

func TestObserveReferralRedemption(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveReferralRedemption("success")

	count := promtest.ToFloat64(m.ReferralRedemptionsTotal.WithLabelValues("success"))
	if count != 1 {
		t.Errorf("expected 1 referral redemption, got %.0f", count)
	}
}

func TestObserveStrikeAndBlock(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveStrike()
	m.ObserveRiderBlocked()
	m.ObserveRiderUnblocked()

	if promtest.ToFloat64(m.StrikesIssuedTotal) != 1 {
		t.Error("expected 1 strike issued")
	}
	if promtest.ToFloat64(m.RidersBlockedTotal) != 1 {
		t.Error("expected 1 rider blocked")
	}
	if promtest.ToFloat64(m.RidersUnblockedTotal) != 1 {
		t.Error("expected 1 rider unblocked")
	}
}

func TestObservePSPCall(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		err        error
		wantErrors float64
	}{
		{"successful call", "transfer", nil, 0},
		{"connection error", "transfer", &testError{msg: "connection reset"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := prometheus.NewRegistry()
			m := New(registry)

			m.ObservePSPCall(tt.operation, 100*time.Millisecond, tt.err)

			calls := promtest.ToFloat64(m.PSPCallsTotal.WithLabelValues(tt.operation))
			if calls != 1 {
				t.Errorf("expected 1 PSP call, got %.0f", calls)
			}

			if tt.err != nil {
				errs := promtest.ToFloat64(m.PSPErrorsTotal.WithLabelValues(tt.operation, "connection"))
				if errs != tt.wantErrors {
					t.Errorf("expected %.0f PSP errors, got %.0f", tt.wantErrors, errs)
				}
			}
		})
	}
}

func TestObserveNotifierDelivery(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveNotifierDelivery("payout.paid", "success", 500*time.Millisecond, 1, false)

	deliveries := promtest.ToFloat64(m.NotifierDeliveriesTotal.WithLabelValues("payout.paid", "success"))
	if deliveries != 1 {
		t.Errorf("expected 1 notifier delivery, got %.0f", deliveries)
	}

	m.ObserveNotifierDelivery("rider.blocked", "failed", 2*time.Second, 5, true)

	retries := promtest.ToFloat64(m.NotifierRetriesTotal.WithLabelValues("rider.blocked", "5"))
	if retries != 1 {
		t.Errorf("expected 1 notifier retry record, got %.0f", retries)
	}

	dlq := promtest.ToFloat64(m.NotifierDLQTotal.WithLabelValues("rider.blocked"))
	if dlq != 1 {
		t.Errorf("expected 1 notification in DLQ, got %.0f", dlq)
	}
}

func TestObserveRateLimit(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveRateLimit("referral", "rider123")

	hits := promtest.ToFloat64(m.RateLimitHitsTotal.WithLabelValues("referral", "rider123"))
	if hits != 1 {
		t.Errorf("expected 1 rate limit hit, got %.0f", hits)
	}
}

func TestObserveDBQuery(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveDBQuery("find_wallet", "mongo", 50*time.Millisecond)

	if m.DBQueryDuration == nil {
		t.Error("DBQueryDuration should be initialized")
	}
}

// testError is a simple error type for testing.
type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
