package payout

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("payout: not found")
	ErrAlreadyExists      = errors.New("payout: already exists")
	ErrReferenceCodeTaken = errors.New("payout: payment reference code already taken")
)

// Filter narrows ListPayouts (§4.7, §6 GET /payouts).
type Filter struct {
	RiderID   string
	WeekStart *time.Time
	Status    Status
}

// Repository defines storage access for RiderPayout documents. The
// unique index spans (riderId, weekStart) and, separately,
// paymentReferenceCode (§6).
type Repository interface {
	// GetByRiderWeek looks up the document keyed by (riderID, weekStart).
	GetByRiderWeek(ctx context.Context, riderID string, weekStart time.Time) (RiderPayout, error)

	Get(ctx context.Context, id string) (RiderPayout, error)

	// GetByReferenceCode looks up the document by its payment reference
	// code, used to reconcile inbound PSP webhook deliveries.
	GetByReferenceCode(ctx context.Context, code string) (RiderPayout, error)

	Create(ctx context.Context, p RiderPayout) error

	// Update persists p. Implementations must treat (riderId, weekStart)
	// and paymentReferenceCode as immutable once set.
	Update(ctx context.Context, p RiderPayout) error

	// ExistsReferenceCode reports whether code is already in use, for the
	// generator's collision-retry loop.
	ExistsReferenceCode(ctx context.Context, code string) (bool, error)

	List(ctx context.Context, filter Filter) ([]RiderPayout, error)

	Close() error
}

type RepositoryConfig struct {
	Backend       string // "memory", "mongo", or "postgres"
	MongoURL      string
	Database      string
	Collection    string
	PostgresURL   string
	PostgresTable string
}

func NewRepository(cfg RepositoryConfig) (Repository, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryRepository(), nil
	case "mongo":
		if cfg.MongoURL == "" {
			return nil, errors.New("payout: mongo_url required for mongo backend")
		}
		collection := cfg.Collection
		if collection == "" {
			collection = "rider_payouts"
		}
		return NewMongoRepository(cfg.MongoURL, cfg.Database, collection)
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, errors.New("payout: postgres_url required for postgres backend")
		}
		table := cfg.PostgresTable
		if table == "" {
			table = "rider_payouts"
		}
		return NewPostgresRepository(cfg.PostgresURL, table)
	default:
		return nil, errors.New("payout: unknown repository backend: " + cfg.Backend)
	}
}
