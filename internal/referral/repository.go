package referral

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("referral: not found")
	ErrAlreadyExists = errors.New("referral: already exists")
)

// Repository defines storage access for Referral documents. The unique
// index lives on ReferredUserID (§6): Create must fail with
// ErrAlreadyExists if one already exists for that referee.
type Repository interface {
	Create(ctx context.Context, r Referral) error
	Get(ctx context.Context, id string) (Referral, error)
	GetByReferredUser(ctx context.Context, referredUserID string) (Referral, error)
	Update(ctx context.Context, r Referral) error
	ListByReferrer(ctx context.Context, referrerID string) ([]Referral, error)

	Close() error
}

type RepositoryConfig struct {
	Backend    string // "memory" or "mongo"
	MongoURL   string
	Database   string
	Collection string
}

func NewRepository(cfg RepositoryConfig) (Repository, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryRepository(), nil
	case "mongo":
		if cfg.MongoURL == "" {
			return nil, errors.New("referral: mongo_url required for mongo backend")
		}
		collection := cfg.Collection
		if collection == "" {
			collection = "referrals"
		}
		return NewMongoRepository(cfg.MongoURL, cfg.Database, collection)
	default:
		return nil, errors.New("referral: unknown repository backend: " + cfg.Backend)
	}
}
