package httpserver

import (
	"net/http"
	"time"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/orders"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
	"github.com/toyorcee/9thwaka-earnings-core/internal/paymentwindow"
	"github.com/toyorcee/9thwaka-earnings-core/pkg/responders"
)

// TripView is one delivered order as surfaced on the rider's earnings
// screen — a thinner projection of orders.Order than the full entity.
type TripView struct {
	OrderID     string             `json:"orderId"`
	DeliveredAt time.Time          `json:"deliveredAt"`
	Gross       money.Money        `json:"gross"`
	Commission  money.Money        `json:"commission"`
	RiderNet    money.Money        `json:"riderNet"`
	ServiceType orders.ServiceType `json:"serviceType"`
}

// PendingPayoutView surfaces the current week's payout alongside the
// §4.8 due/grace/overdue projection so the rider sees exactly what an
// admin sees on the enforcement sweep.
type PendingPayoutView struct {
	PayoutID             string             `json:"payoutId"`
	WeekStart            time.Time          `json:"weekStart"`
	WeekEnd              time.Time          `json:"weekEnd"`
	Commission           money.Money        `json:"commission"`
	PaymentReferenceCode string             `json:"paymentReferenceCode"`
	Flags                paymentwindow.Flags `json:"flags"`
}

// PaymentStatusView reports the rider's enforcement standing (§4.9).
type PaymentStatusView struct {
	PaymentBlocked     bool   `json:"paymentBlocked"`
	AccountDeactivated bool   `json:"accountDeactivated"`
	StrikeCount        int    `json:"strikeCount"`
	BlockedReason      string `json:"blockedReason,omitempty"`
}

// EarningsResponse is the full body of GET /rider/earnings (§6).
type EarningsResponse struct {
	WeekStart      time.Time          `json:"weekStart"`
	WeekEnd        time.Time          `json:"weekEnd"`
	CurrentWeek    payout.Totals      `json:"currentWeek"`
	Trips          []TripView         `json:"trips"`
	AllTime        payout.Totals      `json:"allTime"`
	PendingPayout  *PendingPayoutView `json:"pendingPayout,omitempty"`
	WalletBalance  money.Money        `json:"walletBalance"`
	PaymentStatus  PaymentStatusView  `json:"paymentStatus"`
}

// riderEarnings handles GET /rider/earnings.
func (h *handlers) riderEarnings(w http.ResponseWriter, r *http.Request) {
	riderID := riderIDFromRequest(r)
	if riderID == "" {
		waerrors.WriteError(w, waerrors.New(waerrors.Unauthorized, "missing rider identity"))
		return
	}
	ctx := r.Context()

	now := time.Now().In(h.loc)
	weekStart, weekEnd := payout.GetWeekRange(now, h.loc)

	weekPayouts, err := h.payouts.ListPayouts(ctx, payout.Filter{RiderID: riderID, WeekStart: &weekStart})
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	currentWeek := zeroTotals()
	var pending *PendingPayoutView
	if len(weekPayouts) > 0 {
		p := weekPayouts[0]
		currentWeek = p.Totals
		flags := paymentwindow.Compute(p.WeekEnd, p.Totals.Commission, time.Now(), p.Status, h.gracePeriod)
		if p.Status == payout.StatusPending {
			pending = &PendingPayoutView{
				PayoutID:             p.ID,
				WeekStart:            p.WeekStart,
				WeekEnd:              p.WeekEnd,
				Commission:           p.Totals.Commission,
				PaymentReferenceCode: p.PaymentReferenceCode,
				Flags:                flags,
			}
		}
	}

	allPayouts, err := h.payouts.ListPayouts(ctx, payout.Filter{RiderID: riderID})
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	allTime := zeroTotals()
	for _, p := range allPayouts {
		allTime.Count += p.Totals.Count
		if sum, err := allTime.Gross.Add(p.Totals.Gross); err == nil {
			allTime.Gross = sum
		}
		if sum, err := allTime.Commission.Add(p.Totals.Commission); err == nil {
			allTime.Commission = sum
		}
		if sum, err := allTime.RiderNet.Add(p.Totals.RiderNet); err == nil {
			allTime.RiderNet = sum
		}
	}

	deliveredOrders, err := h.orders.ListDeliveredByRiderBetween(ctx, riderID, weekStart, weekEnd)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	trips := make([]TripView, 0, len(deliveredOrders))
	for _, o := range deliveredOrders {
		trips = append(trips, TripView{
			OrderID:     o.ID,
			DeliveredAt: o.DeliveredAt(),
			Gross:       o.Financial.GrossAmount,
			Commission:  o.Financial.CommissionAmount,
			RiderNet:    o.Financial.RiderNetAmount,
			ServiceType: o.ServiceType,
		})
	}

	balance, err := h.ledger.Balance(ctx, riderID)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}

	rider, err := h.users.Get(ctx, riderID)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}

	responders.JSON(w, http.StatusOK, EarningsResponse{
		WeekStart:     weekStart,
		WeekEnd:       weekEnd,
		CurrentWeek:   currentWeek,
		Trips:         trips,
		AllTime:       allTime,
		PendingPayout: pending,
		WalletBalance: balance,
		PaymentStatus: PaymentStatusView{
			PaymentBlocked:     rider.PaymentBlocked,
			AccountDeactivated: rider.AccountDeactivated,
			StrikeCount:        len(rider.Strikes),
			BlockedReason:      rider.PaymentBlockedReason,
		},
	})
}

func zeroTotals() payout.Totals {
	return payout.Totals{
		Gross:      money.Zero(money.NGN),
		Commission: money.Zero(money.NGN),
		RiderNet:   money.Zero(money.NGN),
	}
}
