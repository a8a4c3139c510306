package payout

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository is the primary backend for rider_payouts (§11). The
// unique compound index on (riderId, weekStart) is what makes
// upsertPayoutForDelivery's find-or-create idempotent across concurrent
// deliveries for the same rider and week.
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
	if _, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "riderId", Value: 1}, {Key: "weekStart", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "paymentReferenceCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return nil, fmt.Errorf("create rider_payouts indexes: %w", err)
	}

	return &MongoRepository{client: client, col: col}, nil
}

func (r *MongoRepository) GetByRiderWeek(ctx context.Context, riderID string, weekStart time.Time) (RiderPayout, error) {
	var p RiderPayout
	err := r.col.FindOne(ctx, bson.M{"riderId": riderID, "weekStart": weekStart}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return RiderPayout{}, ErrNotFound
	}
	if err != nil {
		return RiderPayout{}, fmt.Errorf("find rider payout: %w", err)
	}
	return p, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (RiderPayout, error) {
	var p RiderPayout
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return RiderPayout{}, ErrNotFound
	}
	if err != nil {
		return RiderPayout{}, fmt.Errorf("find rider payout by id: %w", err)
	}
	return p, nil
}

func (r *MongoRepository) GetByReferenceCode(ctx context.Context, code string) (RiderPayout, error) {
	var p RiderPayout
	err := r.col.FindOne(ctx, bson.M{"paymentReferenceCode": code}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return RiderPayout{}, ErrNotFound
	}
	if err != nil {
		return RiderPayout{}, fmt.Errorf("find rider payout by reference code: %w", err)
	}
	return p, nil
}

func (r *MongoRepository) Create(ctx context.Context, p RiderPayout) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert rider payout: %w", err)
	}
	return nil
}

func (r *MongoRepository) Update(ctx context.Context, p RiderPayout) error {
	p.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrReferenceCodeTaken
		}
		return fmt.Errorf("replace rider payout: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ExistsReferenceCode(ctx context.Context, code string) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"paymentReferenceCode": code})
	if err != nil {
		return false, fmt.Errorf("count rider payouts by reference code: %w", err)
	}
	return count > 0, nil
}

func (r *MongoRepository) List(ctx context.Context, filter Filter) ([]RiderPayout, error) {
	query := bson.M{}
	if filter.RiderID != "" {
		query["riderId"] = filter.RiderID
	}
	if filter.WeekStart != nil {
		query["weekStart"] = *filter.WeekStart
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	cursor, err := r.col.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find rider payouts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []RiderPayout
	for cursor.Next(ctx) {
		var p RiderPayout
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode rider payout: %w", err)
		}
		out = append(out, p)
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
