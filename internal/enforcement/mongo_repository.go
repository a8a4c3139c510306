package enforcement

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
	col    *mongo.Collection
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

	col := client.Database(database).Collection(collection)
	return &MongoRepository{client: client, col: col}, nil
}

func (r *MongoRepository) Create(ctx context.Context, rec BlockedCredentials) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert blocked credentials: %w", err)
	}
	return nil
}

func (r *MongoRepository) ExistsByNINOrEmailOrPhone(ctx context.Context, nin, email, phone string) (bool, error) {
	var or []bson.M
	if nin != "" {
		or = append(or, bson.M{"nin": nin})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phoneNumber": phone})
	}
	if len(or) == 0 {
		return false, nil
	}

	count, err := r.col.CountDocuments(ctx, bson.M{"$or": or})
	if err != nil {
		return false, fmt.Errorf("count blocked credentials: %w", err)
	}
	return count > 0, nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
