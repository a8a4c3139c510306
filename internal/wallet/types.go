package wallet

import (
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

type TransactionType string

const (
	TransactionReferralReward  TransactionType = "referral_reward"
	TransactionStreakBonus     TransactionType = "streak_bonus"
	TransactionCommissionDebit TransactionType = "commission_debit"
	TransactionAdjustment      TransactionType = "adjustment"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is one append-only ledger entry. Amount is signed: credits
// are positive, debits are negative, so Wallet.Balance is always
// recoverable as the sum of completed transactions (§8 invariant 2).
type Transaction struct {
	ID          string            `bson:"_id" json:"id"`
	UserID      string            `bson:"userId" json:"userId"`
	Type        TransactionType   `bson:"type" json:"type"`
	Amount      money.Money       `bson:"amount" json:"amount"`
	Status      TransactionStatus `bson:"status" json:"status"`
	OrderID     string            `bson:"orderId,omitempty" json:"orderId,omitempty"`
	ReferralID  string            `bson:"referralId,omitempty" json:"referralId,omitempty"`
	Metadata    map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	ProcessedAt time.Time         `bson:"processedAt" json:"processedAt"`
}

// Wallet is one per user; Balance must never go negative.
type Wallet struct {
	UserID    string      `bson:"_id" json:"userId"`
	Balance   money.Money `bson:"balance" json:"balance"`
	CreatedAt time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Meta carries the caller-supplied context for a credit or debit —
// what it's for, and which order/referral it traces back to.
type Meta struct {
	Type       TransactionType
	OrderID    string
	ReferralID string
	Extra      map[string]string
}
