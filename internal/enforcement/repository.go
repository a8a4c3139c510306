package enforcement

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("enforcement: not found")

// Repository stores BlockedCredentials records. Checking against it is
// part of rider registration (outside this package's scope), not
// something Enforcement Actions itself reads back.
type Repository interface {
	Create(ctx context.Context, rec BlockedCredentials) error
	ExistsByNINOrEmailOrPhone(ctx context.Context, nin, email, phone string) (bool, error)
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
			return nil, errors.New("enforcement: mongo_url required for mongo backend")
		}
		collection := cfg.Collection
		if collection == "" {
			collection = "blocked_credentials"
		}
		return NewMongoRepository(cfg.MongoURL, cfg.Database, collection)
	default:
		return nil, errors.New("enforcement: unknown repository backend: " + cfg.Backend)
	}
}
