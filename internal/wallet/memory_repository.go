package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

// MemoryRepository is an in-memory Repository used by tests. A single
// mutex covers both maps since ApplyTransaction must read-then-write
// the wallet and append the transaction as one atomic step — the same
// guarantee a Mongo session transaction gives the Mongo-backed
// repository.
type MemoryRepository struct {
	mu           sync.Mutex
	wallets      map[string]Wallet
	transactions map[string][]Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		wallets:      make(map[string]Wallet),
		transactions: make(map[string][]Transaction),
	}
}

func (r *MemoryRepository) EnsureWallet(_ context.Context, userID string) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.wallets[userID]; ok {
		return w, nil
	}
	now := time.Now()
	w := Wallet{UserID: userID, Balance: money.Zero(money.NGN), CreatedAt: now, UpdatedAt: now}
	r.wallets[userID] = w
	return w, nil
}

func (r *MemoryRepository) GetWallet(_ context.Context, userID string) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wallets[userID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (r *MemoryRepository) ApplyTransaction(_ context.Context, txn Transaction, newBalance money.Money) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wallets[txn.UserID]
	if !ok {
		now := time.Now()
		w = Wallet{UserID: txn.UserID, Balance: money.Zero(money.NGN), CreatedAt: now}
	}
	w.Balance = newBalance
	w.UpdatedAt = time.Now()
	r.wallets[txn.UserID] = w

	if txn.ProcessedAt.IsZero() {
		txn.ProcessedAt = w.UpdatedAt
	}
	r.transactions[txn.UserID] = append(r.transactions[txn.UserID], txn)
	return w, nil
}

func (r *MemoryRepository) ListTransactions(_ context.Context, userID string) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txns := make([]Transaction, len(r.transactions[userID]))
	copy(txns, r.transactions[userID])
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].ProcessedAt.Before(txns[j].ProcessedAt) })
	return txns, nil
}

func (r *MemoryRepository) Close() error { return nil }
