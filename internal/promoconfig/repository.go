package promoconfig

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("promoconfig: not found")

// Repository defines storage access for the PromoConfig singleton and
// its audit trail.
type Repository interface {
	Get(ctx context.Context) (PromoConfig, error)
	Save(ctx context.Context, cfg PromoConfig) error

	AppendAudit(ctx context.Context, rec AuditRecord) error
	ListAudit(ctx context.Context) ([]AuditRecord, error)

	Close() error
}

type RepositoryConfig struct {
	Backend         string // "memory", "mongo", or "postgres"
	MongoURL        string
	Database        string
	Collection      string
	AuditCollection string

	PostgresDSN   string
	PostgresTable string
	AuditTable    string
}

func NewRepository(cfg RepositoryConfig) (Repository, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryRepository(), nil
	case "mongo":
		if cfg.MongoURL == "" {
			return nil, errors.New("promoconfig: mongo_url required for mongo backend")
		}
		collection := cfg.Collection
		if collection == "" {
			collection = "promo_config"
		}
		audit := cfg.AuditCollection
		if audit == "" {
			audit = "promo_config_audit"
		}
		return NewMongoRepository(cfg.MongoURL, cfg.Database, collection, audit)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("promoconfig: postgres_dsn required for postgres backend")
		}
		table := cfg.PostgresTable
		if table == "" {
			table = "promo_config"
		}
		auditTable := cfg.AuditTable
		if auditTable == "" {
			auditTable = "promo_config_audit"
		}
		return NewPostgresRepository(cfg.PostgresDSN, table, auditTable)
	default:
		return nil, errors.New("promoconfig: unknown repository backend: " + cfg.Backend)
	}
}
