package promoconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// singletonID is the fixed document ID for the one PromoConfig document
// this collection ever holds.
const singletonID = "singleton"

type mongoPromoConfig struct {
	ID string `bson:"_id"`
	PromoConfig
}

type MongoRepository struct {
	client *mongo.Client
	docs   *mongo.Collection
	audit  *mongo.Collection
}

func NewMongoRepository(connectionString, database, collection, auditCollection string) (*MongoRepository, error) {
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

	return &MongoRepository{
		client: client,
		docs:   client.Database(database).Collection(collection),
		audit:  client.Database(database).Collection(auditCollection),
	}, nil
}

func (r *MongoRepository) Get(ctx context.Context) (PromoConfig, error) {
	var doc mongoPromoConfig
	err := r.docs.FindOne(ctx, bson.M{"_id": singletonID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return PromoConfig{}, ErrNotFound
	}
	if err != nil {
		return PromoConfig{}, fmt.Errorf("find promo config: %w", err)
	}
	return doc.PromoConfig, nil
}

func (r *MongoRepository) Save(ctx context.Context, cfg PromoConfig) error {
	doc := mongoPromoConfig{ID: singletonID, PromoConfig: cfg}
	_, err := r.docs.ReplaceOne(ctx, bson.M{"_id": singletonID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save promo config: %w", err)
	}
	return nil
}

func (r *MongoRepository) AppendAudit(ctx context.Context, rec AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if _, err := r.audit.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert promo config audit record: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListAudit(ctx context.Context) ([]AuditRecord, error) {
	cursor, err := r.audit.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find promo config audit: %w", err)
	}
	defer cursor.Close(ctx)

	var result []AuditRecord
	for cursor.Next(ctx) {
		var rec AuditRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode audit record: %w", err)
		}
		result = append(result, rec)
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
