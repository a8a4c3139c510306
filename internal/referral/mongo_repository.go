package referral

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
	if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "referredUserId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("create referredUserId index: %w", err)
	}

	return &MongoRepository{client: client, col: col}, nil
}

func (r *MongoRepository) Create(ctx context.Context, ref Referral) error {
	if _, err := r.col.InsertOne(ctx, ref); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (Referral, error) {
	var ref Referral
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&ref)
	if err == mongo.ErrNoDocuments {
		return Referral{}, ErrNotFound
	}
	if err != nil {
		return Referral{}, fmt.Errorf("find referral: %w", err)
	}
	return ref, nil
}

func (r *MongoRepository) GetByReferredUser(ctx context.Context, referredUserID string) (Referral, error) {
	var ref Referral
	err := r.col.FindOne(ctx, bson.M{"referredUserId": referredUserID}).Decode(&ref)
	if err == mongo.ErrNoDocuments {
		return Referral{}, ErrNotFound
	}
	if err != nil {
		return Referral{}, fmt.Errorf("find referral by referred user: %w", err)
	}
	return ref, nil
}

func (r *MongoRepository) Update(ctx context.Context, ref Referral) error {
	ref.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": ref.ID}, ref)
	if err != nil {
		return fmt.Errorf("replace referral: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListByReferrer(ctx context.Context, referrerID string) ([]Referral, error) {
	cursor, err := r.col.Find(ctx, bson.M{"referrerId": referrerID})
	if err != nil {
		return nil, fmt.Errorf("find referrals by referrer: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Referral
	for cursor.Next(ctx) {
		var ref Referral
		if err := cursor.Decode(&ref); err != nil {
			return nil, fmt.Errorf("decode referral: %w", err)
		}
		out = append(out, ref)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
