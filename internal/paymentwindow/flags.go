// Package paymentwindow implements the Payment Window Controller (C8):
// pure derivations of due/grace/overdue state from a pending payout's
// weekEnd, plus the scheduled enforcement sweep that acts on them.
package paymentwindow

import (
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
)

// Flags is the derived due/grace/overdue projection for one payout,
// evaluated against now (§4.8). It is never stored: a caller recomputes
// it on every read.
type Flags struct {
	PaymentDueDate  time.Time
	GraceDeadline   time.Time
	IsPaymentDue    bool
	IsInGracePeriod bool
	IsOverdue       bool
}

// Compute derives Flags from (weekEnd, commission, now, status) — pure
// functions per §4.8, recomputable anywhere without storage access.
// gracePeriod is the configured grace window (default 24h, §11
// PayoutWindowConfig.GracePeriodHours); the spec's worked example uses
// weekEnd-1s as the due date and weekEnd+23h59m59s as the grace
// deadline, i.e. a grace window one second short of 24h.
func Compute(weekEnd time.Time, commission money.Money, now time.Time, status payout.Status, gracePeriod time.Duration) Flags {
	dueDate := weekEnd.Add(-time.Second)
	graceDeadline := weekEnd.Add(gracePeriod - time.Second)

	isDue := status == payout.StatusPending && commission.Atomic > 0 && !now.Before(dueDate)
	isGrace := isDue && !now.After(graceDeadline)
	isOverdue := isDue && now.After(graceDeadline)

	return Flags{
		PaymentDueDate:  dueDate,
		GraceDeadline:   graceDeadline,
		IsPaymentDue:    isDue,
		IsInGracePeriod: isGrace,
		IsOverdue:       isOverdue,
	}
}
