package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nzd00905/s-shop/internal/domain"
	"github.com/Nzd00905/s-shop/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrInvalidStatus     = errors.New("unknown order status")
)

// Repository covers order reads and the single legal mutation after
// placement: advancing the status through the fulfillment state
// machine. Everything else on an order is immutable.
type Repository interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListUserOrders(ctx context.Context, email string) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, to domain.OrderStatus) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection(store.OrdersCollection),
	}
}

func (m *mongoRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.find(ctx, bson.M{})
}

func (m *mongoRepository) ListUserOrders(ctx context.Context, email string) ([]domain.Order, error) {
	return m.find(ctx, bson.M{"user_email": email})
}

func (m *mongoRepository) find(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (m *mongoRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// UpdateStatus validates the transition against the current status and
// applies it with a compare-and-set so concurrent admin updates cannot
// skip states. Retries a few times when it loses the race.
func (m *mongoRepository) UpdateStatus(ctx context.Context, id string, to domain.OrderStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, to)
	}

	for attempt := 0; attempt < 3; attempt++ {
		order, err := m.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransitionTo(order.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, to)
		}

		result, err := m.collection.UpdateOne(ctx,
			bson.M{"_id": id, "status": order.Status},
			bson.M{"$set": bson.M{"status": to}})
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if result.MatchedCount == 1 {
			return nil
		}
		// Lost a race with another status update; re-read and re-check.
	}
	return fmt.Errorf("failed to update order status: %w", store.ErrTxnConflict)
}
