package orders

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	client *mongo.Client
	orders *mongo.Collection
}

func NewMongoRepository(connectionString, database, collection string) (*MongoRepository, error) {
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

	orders := client.Database(database).Collection(collection)
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "riderId", Value: 1}, {Key: "status", Value: 1}, {Key: "delivery.deliveredAt", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "delivery.deliveredAt", Value: 1}}},
		{Keys: bson.D{{Key: "customerId", Value: 1}}},
	}
	if _, err := orders.Indexes().CreateMany(ctx, indexModels); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return &MongoRepository{client: client, orders: orders}, nil
}

func (r *MongoRepository) Create(ctx context.Context, order Order) error {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	_, err := r.orders.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (Order, error) {
	var order Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (r *MongoRepository) Update(ctx context.Context, order Order) error {
	order.UpdatedAt = time.Now()

	result, err := r.orders.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return fmt.Errorf("replace order: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListDeliveredBetween(ctx context.Context, start, end time.Time) ([]Order, error) {
	return r.listDelivered(ctx, bson.M{
		"status":                "delivered",
		"delivery.deliveredAt": bson.M{"$gte": start, "$lt": end},
	})
}

func (r *MongoRepository) ListDeliveredByRiderBetween(ctx context.Context, riderID string, start, end time.Time) ([]Order, error) {
	return r.listDelivered(ctx, bson.M{
		"riderId":               riderID,
		"status":                "delivered",
		"delivery.deliveredAt": bson.M{"$gte": start, "$lt": end},
	})
}

func (r *MongoRepository) listDelivered(ctx context.Context, filter bson.M) ([]Order, error) {
	cursor, err := r.orders.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find delivered orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []Order
	for cursor.Next(ctx) {
		var order Order
		if err := cursor.Decode(&order); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		result = append(result, order)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return result, nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
