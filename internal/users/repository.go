package users

import (
	"context"
	"errors"
)

// Sentinel errors returned by every Repository implementation.
var (
	ErrNotFound      = errors.New("users: not found")
	ErrAlreadyExists = errors.New("users: already exists")
	ErrCodeTaken     = errors.New("users: referral code already taken")
)

// Repository defines storage access for User documents. Riders, customers,
// and admins share one collection/table; callers filter by Role.
type Repository interface {
	Create(ctx context.Context, user User) error
	Get(ctx context.Context, id string) (User, error)
	GetByReferralCode(ctx context.Context, code string) (User, error)
	Update(ctx context.Context, user User) error

	// CountDeliveredOrders is used by the Referral Engine to evaluate the
	// completedTrips threshold role-aware (§4.4): it counts the user's
	// delivered orders from the orders collection, not a denormalized
	// counter on the User document, so it lives behind the repository
	// boundary even though the query spans collections.
	CountDeliveredOrders(ctx context.Context, userID string, role Role) (int, error)

	Close() error
}

// RepositoryConfig selects and configures a Repository backend.
type RepositoryConfig struct {
	Backend    string // "memory" or "mongo"
	MongoURL   string
	Database   string
	Collection string
	// OrdersCollection is read by CountDeliveredOrders; it must match the
	// collection internal/orders writes to.
	OrdersCollection string
}

// NewRepository builds a Repository from cfg.
func NewRepository(cfg RepositoryConfig) (Repository, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryRepository(), nil
	case "mongo":
		if cfg.MongoURL == "" {
			return nil, errors.New("users: mongo_url required for mongo backend")
		}
		collection := cfg.Collection
		if collection == "" {
			collection = "users"
		}
		ordersCollection := cfg.OrdersCollection
		if ordersCollection == "" {
			ordersCollection = "orders"
		}
		return NewMongoRepository(cfg.MongoURL, cfg.Database, collection, ordersCollection)
	default:
		return nil, errors.New("users: unknown repository backend: " + cfg.Backend)
	}
}
