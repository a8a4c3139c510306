package wallet

import (
	"context"
	"errors"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

var ErrNotFound = errors.New("wallet: not found")

// Repository defines storage access for Wallet and Transaction
// documents. It exposes only the low-level reads/writes the Ledger
// needs — the atomicity guarantee (append transaction + adjust balance
// as one unit) is the Repository implementation's responsibility, not
// the Ledger's, so a Mongo-backed Repository can use a session
// transaction while the in-memory one uses its own mutex.
type Repository interface {
	// EnsureWallet returns the user's Wallet, creating a zero-balance one
	// if it does not exist yet.
	EnsureWallet(ctx context.Context, userID string) (Wallet, error)

	GetWallet(ctx context.Context, userID string) (Wallet, error)

	// ApplyTransaction appends txn and sets the wallet's balance to
	// newBalance as one atomic unit. Callers compute newBalance from the
	// wallet state they read within the same logical operation.
	ApplyTransaction(ctx context.Context, txn Transaction, newBalance money.Money) (Wallet, error)

	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)

	Close() error
}

type RepositoryConfig struct {
	Backend              string // "memory" or "mongo"
	MongoURL             string
	Database             string
	WalletsCollection    string
	TransactionsCollection string
}

func NewRepository(cfg RepositoryConfig) (Repository, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryRepository(), nil
	case "mongo":
		if cfg.MongoURL == "" {
			return nil, errors.New("wallet: mongo_url required for mongo backend")
		}
		wallets := cfg.WalletsCollection
		if wallets == "" {
			wallets = "wallets"
		}
		txns := cfg.TransactionsCollection
		if txns == "" {
			txns = "wallet_transactions"
		}
		return NewMongoRepository(cfg.MongoURL, cfg.Database, wallets, txns)
	default:
		return nil, errors.New("wallet: unknown repository backend: " + cfg.Backend)
	}
}
