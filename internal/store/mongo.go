package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Nzd00905/s-shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Collection names shared by the store and repositories.
const (
	ProductsCollection = "products"
	OrdersCollection   = "orders"
	OutboxCollection   = "outbox"
	SettingsCollection = "settings"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// MongoStore implements TxStore and OutboxStore on MongoDB
// multi-document transactions. Requires a replica set (or sharded
// cluster); standalone servers reject transactions.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{client: db.Client(), db: db}
}

func (s *MongoStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(txnOpts); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}

		txn := &mongoTxn{db: s.db}
		if err := fn(sc, txn); err != nil {
			if abortErr := session.AbortTransaction(sc); abortErr != nil {
				log.Printf("failed to abort transaction: %v", abortErr)
			}
			return err
		}

		if err := session.CommitTransaction(sc); err != nil {
			return mapTxnError(err, "commit transaction")
		}
		return nil
	})
}

// mapTxnError translates the driver's optimistic-concurrency labels
// into ErrTxnConflict so the caller's retry loop can act on them.
func mapTxnError(err error, op string) error {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.HasErrorLabel("TransientTransactionError") ||
			serverErr.HasErrorLabel("UnknownTransactionCommitResult") {
			return ErrTxnConflict
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type mongoTxn struct {
	db *mongo.Database
}

func (t *mongoTxn) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := t.db.Collection(ProductsCollection).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, mapTxnError(err, "get product")
	}
	return &product, nil
}

func (t *mongoTxn) CreateOrder(ctx context.Context, order *domain.Order) error {
	_, err := t.db.Collection(OrdersCollection).InsertOne(ctx, order)
	if err != nil {
		return mapTxnError(err, "insert order")
	}
	return nil
}

func (t *mongoTxn) DecrementStock(ctx context.Context, productID string, quantity int) error {
	result, err := t.db.Collection(ProductsCollection).UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$inc": bson.M{"stock": -quantity}})
	if err != nil {
		return mapTxnError(err, "decrement stock")
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (t *mongoTxn) AppendEvent(ctx context.Context, event *domain.OutboxEvent) error {
	_, err := t.db.Collection(OutboxCollection).InsertOne(ctx, event)
	if err != nil {
		return mapTxnError(err, "insert outbox event")
	}
	return nil
}

func (s *MongoStore) UnprocessedEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(OutboxCollection).
		Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("find unprocessed events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []domain.OutboxEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode outbox events: %w", err)
	}
	return events, nil
}

func (s *MongoStore) MarkEventProcessed(ctx context.Context, id string) error {
	result, err := s.db.Collection(OutboxCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"processed": true}})
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}
