package users

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository against the shared `users`
// collection, and counts delivered orders from `orders` for
// CountDeliveredOrders.
type MongoRepository struct {
	client      *mongo.Client
	users       *mongo.Collection
	orders      *mongo.Collection
}

// NewMongoRepository connects to MongoDB and ensures the unique indexes
// the spec requires on this collection (referralCode, email).
func NewMongoRepository(connectionString, database, usersCollection, ordersCollection string) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	users := client.Database(database).Collection(usersCollection)
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "referralCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}
	if _, err := users.Indexes().CreateMany(ctx, indexModels); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return &MongoRepository{
		client: client,
		users:  users,
		orders: client.Database(database).Collection(ordersCollection),
	}, nil
}

// Create inserts a new User document.
func (r *MongoRepository) Create(ctx context.Context, user User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Strikes == nil {
		user.Strikes = []StrikeEvent{}
	}

	_, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get retrieves a User by ID.
func (r *MongoRepository) Get(ctx context.Context, id string) (User, error) {
	var user User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// GetByReferralCode retrieves a User by their unique referral code.
func (r *MongoRepository) GetByReferralCode(ctx context.Context, code string) (User, error) {
	var user User
	err := r.users.FindOne(ctx, bson.M{"referralCode": code}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by referral code: %w", err)
	}
	return user, nil
}

// Update replaces the stored User document with user, keyed by ID.
func (r *MongoRepository) Update(ctx context.Context, user User) error {
	user.UpdatedAt = time.Now()

	result, err := r.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return fmt.Errorf("replace user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountDeliveredOrders counts the user's delivered orders, filtered by
// role: a rider counts orders where they were the rider, a customer
// counts orders they placed.
func (r *MongoRepository) CountDeliveredOrders(ctx context.Context, userID string, role Role) (int, error) {
	field := "customerId"
	if role == RoleRider {
		field = "riderId"
	}

	count, err := r.orders.CountDocuments(ctx, bson.M{
		field:    userID,
		"status": "delivered",
	})
	if err != nil {
		return 0, fmt.Errorf("count delivered orders: %w", err)
	}
	return int(count), nil
}

// Close disconnects the MongoDB client.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
