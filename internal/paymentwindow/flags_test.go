package paymentwindow

import (
	"testing"
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
)

func TestCompute_NotYetDue(t *testing.T) {
	weekEnd := time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)
	now := weekEnd.Add(-2 * 24 * time.Hour) // Friday
	commission := money.New(money.NGN, 5000)

	flags := Compute(weekEnd, commission, now, payout.StatusPending, 24*time.Hour)
	if flags.IsPaymentDue {
		t.Fatal("IsPaymentDue = true, want false before Saturday 23:59:59")
	}
}

func TestCompute_InGracePeriod(t *testing.T) {
	weekEnd := time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)
	now := weekEnd.Add(1 * time.Hour) // Sunday 01:00, past the Saturday 23:59:59 due date
	commission := money.New(money.NGN, 5000)

	flags := Compute(weekEnd, commission, now, payout.StatusPending, 24*time.Hour)
	if !flags.IsPaymentDue {
		t.Fatal("IsPaymentDue = false, want true")
	}
	if !flags.IsInGracePeriod {
		t.Fatal("IsInGracePeriod = false, want true")
	}
	if flags.IsOverdue {
		t.Fatal("IsOverdue = true, want false while within grace")
	}
}

func TestCompute_Overdue(t *testing.T) {
	weekEnd := time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)
	now := weekEnd.Add(24 * time.Hour) // well past the grace deadline
	commission := money.New(money.NGN, 5000)

	flags := Compute(weekEnd, commission, now, payout.StatusPending, 24*time.Hour)
	if !flags.IsOverdue {
		t.Fatal("IsOverdue = false, want true")
	}
	if flags.IsInGracePeriod {
		t.Fatal("IsInGracePeriod = true, want false once overdue")
	}
}

func TestCompute_ZeroCommissionNeverDue(t *testing.T) {
	weekEnd := time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)
	now := weekEnd.Add(72 * time.Hour)
	zero := money.Zero(money.NGN)

	flags := Compute(weekEnd, zero, now, payout.StatusPending, 24*time.Hour)
	if flags.IsPaymentDue || flags.IsOverdue {
		t.Fatal("a payout with zero commission should never become due or overdue")
	}
}

func TestCompute_PaidStatusNeverDue(t *testing.T) {
	weekEnd := time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)
	now := weekEnd.Add(72 * time.Hour)
	commission := money.New(money.NGN, 5000)

	flags := Compute(weekEnd, commission, now, payout.StatusPaid, 24*time.Hour)
	if flags.IsPaymentDue || flags.IsOverdue {
		t.Fatal("a paid payout should never report due/overdue")
	}
}
