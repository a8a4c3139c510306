package wallet

import (
	"context"
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/dbretry"
	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
	"github.com/google/uuid"
)

// Ledger is the Wallet Ledger (C2): atomic credit/debit primitives over
// a Repository, serialized per user via a Locker so two concurrent
// awards on the same rider can't race each other's read-modify-write of
// the balance, and retried via dbretry on transient storage contention.
type Ledger struct {
	repo    Repository
	locks   *users.Locker
	metrics *metrics.Metrics
}

func NewLedger(repo Repository, m *metrics.Metrics) *Ledger {
	return &Ledger{repo: repo, locks: users.NewLocker(), metrics: m}
}

// Credit adds amount to userId's balance and appends a Transaction.
func (l *Ledger) Credit(ctx context.Context, userID string, amount money.Money, meta Meta) (Wallet, Transaction, error) {
	if !amount.IsPositive() {
		return Wallet{}, Transaction{}, waerrors.New(waerrors.InvalidInput, "credit amount must be positive")
	}
	return l.apply(ctx, userID, amount, meta)
}

// Debit subtracts amount from userId's balance. Fails with
// InsufficientFunds if the resulting balance would be negative.
func (l *Ledger) Debit(ctx context.Context, userID string, amount money.Money, meta Meta) (Wallet, Transaction, error) {
	if !amount.IsPositive() {
		return Wallet{}, Transaction{}, waerrors.New(waerrors.InvalidInput, "debit amount must be positive")
	}
	return l.apply(ctx, userID, amount.Negate(), meta)
}

// apply performs the signed balance adjustment under the user's lock so
// the Get-then-ApplyTransaction window is not raced by a concurrent
// caller in this same process; the repository's own transaction (Mongo
// session, or the in-memory mutex) additionally guarantees the storage
// write itself is atomic.
func (l *Ledger) apply(ctx context.Context, userID string, signedAmount money.Money, meta Meta) (Wallet, Transaction, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	wallet, err := dbretry.WithRetry(ctx, func() (Wallet, error) {
		return l.repo.EnsureWallet(ctx, userID)
	})
	if err != nil {
		return Wallet{}, Transaction{}, waerrors.Wrap(waerrors.Internal, "failed to load wallet", err)
	}

	newBalance, err := wallet.Balance.Add(signedAmount)
	if err != nil {
		return Wallet{}, Transaction{}, waerrors.Wrap(waerrors.Internal, "balance arithmetic overflow", err)
	}
	if newBalance.IsNegative() {
		return Wallet{}, Transaction{}, waerrors.New(waerrors.InsufficientFunds, "insufficient wallet balance")
	}

	txn := Transaction{
		ID:         uuid.New().String(),
		UserID:     userID,
		Type:       meta.Type,
		Amount:     signedAmount,
		Status:     TransactionCompleted,
		OrderID:    meta.OrderID,
		ReferralID: meta.ReferralID,
		Metadata:   meta.Extra,
	}

	newWallet, err := dbretry.WithRetry(ctx, func() (Wallet, error) {
		return l.repo.ApplyTransaction(ctx, txn, newBalance)
	})
	if err != nil {
		return Wallet{}, Transaction{}, waerrors.Wrap(waerrors.Contention, "failed to apply wallet transaction", err)
	}

	direction := "credit"
	if signedAmount.IsNegative() {
		direction = "debit"
	}
	l.metrics.ObserveWalletEntry(string(meta.Type), direction, signedAmount.Abs().Atomic)

	if txn.ProcessedAt.IsZero() {
		txn.ProcessedAt = time.Now()
	}
	return newWallet, txn, nil
}

// Balance returns the user's current balance, creating a zero-balance
// wallet if one does not exist yet.
func (l *Ledger) Balance(ctx context.Context, userID string) (money.Money, error) {
	w, err := l.repo.EnsureWallet(ctx, userID)
	if err != nil {
		return money.Money{}, waerrors.Wrap(waerrors.Internal, "failed to load wallet", err)
	}
	return w.Balance, nil
}

// Transactions returns the user's append-only transaction log in
// chronological order.
func (l *Ledger) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	txns, err := l.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, waerrors.Wrap(waerrors.Internal, "failed to load transactions", err)
	}
	return txns, nil
}
