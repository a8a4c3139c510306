// Package payout implements the RiderPayout document and the Payout
// Aggregator (C7): grouping delivered orders per rider per ISO-like week
// into one idempotent weekly document.
package payout

import (
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/orders"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// MarkedPaidBy identifies who transitioned the payout to paid.
type MarkedPaidBy string

const (
	MarkedByRider MarkedPaidBy = "rider"
	MarkedByAdmin MarkedPaidBy = "admin"
	MarkedByPSP   MarkedPaidBy = "psp"
)

// OrderSnapshot is one delivered order's financial facts embedded into
// a RiderPayout at aggregation time (§3). It is a snapshot, not a live
// reference: a later change to the source Order does not retroactively
// change a payout that already embedded it.
type OrderSnapshot struct {
	OrderID     string             `bson:"orderId" json:"orderId"`
	DeliveredAt time.Time          `bson:"deliveredAt" json:"deliveredAt"`
	Gross       money.Money        `bson:"gross" json:"gross"`
	Commission  money.Money        `bson:"commission" json:"commission"`
	RiderNet    money.Money        `bson:"riderNet" json:"riderNet"`
	ServiceType orders.ServiceType `bson:"serviceType" json:"serviceType"`
}

// Totals is recomputed from scratch over Orders on every mutation (§8
// invariant 1), never adjusted in place.
type Totals struct {
	Gross      money.Money `bson:"gross" json:"gross"`
	Commission money.Money `bson:"commission" json:"commission"`
	RiderNet   money.Money `bson:"riderNet" json:"riderNet"`
	Count      int         `bson:"count" json:"count"`
}

// PaystackPayment mirrors the PSP's view of an offline/gateway transfer
// reconciled against this payout (§3, §6).
type PaystackPayment struct {
	Reference string     `bson:"reference,omitempty" json:"reference,omitempty"`
	Status    string     `bson:"status,omitempty" json:"status,omitempty"`
	PaidAt    *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// RiderPayout is uniquely keyed by (riderId, weekStart) and never deleted
// (§3). WeekEnd is exclusive.
type RiderPayout struct {
	ID                    string          `bson:"_id" json:"id"`
	RiderID               string          `bson:"riderId" json:"riderId"`
	WeekStart             time.Time       `bson:"weekStart" json:"weekStart"`
	WeekEnd               time.Time       `bson:"weekEnd" json:"weekEnd"`
	Orders                []OrderSnapshot `bson:"orders" json:"orders"`
	Totals                Totals          `bson:"totals" json:"totals"`
	Status                Status          `bson:"status" json:"status"`
	PaidAt                *time.Time      `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	MarkedPaidBy          MarkedPaidBy    `bson:"markedPaidBy,omitempty" json:"markedPaidBy,omitempty"`
	PaymentProofURL       string          `bson:"paymentProofUrl,omitempty" json:"paymentProofUrl,omitempty"`
	PaymentReferenceCode  string          `bson:"paymentReferenceCode" json:"paymentReferenceCode"`
	PaystackPayment       PaystackPayment `bson:"paystackPayment,omitempty" json:"paystackPayment,omitempty"`
	RewardsUsed           money.Money     `bson:"rewardsUsed" json:"rewardsUsed"`
	CreatedAt             time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// HasOrder reports whether orderID is already embedded, so a caller can
// make upsertForDelivery's duplicate-append check without recomputing
// totals.
func (p RiderPayout) HasOrder(orderID string) bool {
	for _, o := range p.Orders {
		if o.OrderID == orderID {
			return true
		}
	}
	return false
}

// FormatReferenceLine renders the human-readable line that appears on
// an offline bank-transfer receipt (§13 supplemented feature).
func (p RiderPayout) FormatReferenceLine() string {
	return "9thWaka Payout Ref: " + p.PaymentReferenceCode + " — " + p.Totals.Commission.ToMajor() + " NGN due"
}

// recomputeTotals recalculates Totals from Orders from scratch — never
// by in-place addition (§8 invariant 1 / §4.7 step 5).
func recomputeTotals(snapshots []OrderSnapshot) Totals {
	totals := Totals{
		Gross:      money.Zero(money.NGN),
		Commission: money.Zero(money.NGN),
		RiderNet:   money.Zero(money.NGN),
	}
	for _, o := range snapshots {
		if sum, err := totals.Gross.Add(o.Gross); err == nil {
			totals.Gross = sum
		}
		if sum, err := totals.Commission.Add(o.Commission); err == nil {
			totals.Commission = sum
		}
		if sum, err := totals.RiderNet.Add(o.RiderNet); err == nil {
			totals.RiderNet = sum
		}
	}
	totals.Count = len(snapshots)
	return totals
}
