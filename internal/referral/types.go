// Package referral implements the Referral Engine (C4): referrer↔referee
// links, role-aware completed-trip counting, and the one-shot reward
// payout on threshold.
package referral

import (
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

// Referral tracks one referrer↔referee link. It is keyed uniquely by
// ReferredUserID (§3: "at most one Referral per referredUserId") and
// becomes terminal once RewardPaid is true.
type Referral struct {
	ID             string      `bson:"_id" json:"id"`
	ReferrerID     string      `bson:"referrerId" json:"referrerId"`
	ReferredUserID string      `bson:"referredUserId" json:"referredUserId"`
	ReferralCode   string      `bson:"referralCode" json:"referralCode"`
	CompletedTrips int         `bson:"completedTrips" json:"completedTrips"`
	RewardAmount   money.Money `bson:"rewardAmount" json:"rewardAmount"`
	RewardPaid     bool        `bson:"rewardPaid" json:"rewardPaid"`
	PaidAt         *time.Time  `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	TransactionID  string      `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	CreatedAt      time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// IsTerminal reports whether this referral has already paid out; per
// §3 rewardPaid is a one-way latch.
func (r Referral) IsTerminal() bool {
	return r.RewardPaid
}

// ReferrerStats is the per-referrer aggregation behind GET /referral/stats
// (§13 supplemented read model).
type ReferrerStats struct {
	ReferrerID       string      `json:"referrerId"`
	TotalReferred    int         `json:"totalReferred"`
	Pending          int         `json:"pending"`
	Paid             int         `json:"paid"`
	LifetimeRewarded money.Money `json:"lifetimeRewarded"`
}
