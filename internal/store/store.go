package store

import (
	"context"
	"errors"

	"github.com/Nzd00905/s-shop/internal/domain"
)

// Common errors returned by the store
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrEventNotFound   = errors.New("outbox event not found")

	// ErrTxnConflict reports that another transaction wrote a document
	// this one read before it could commit. The attempt left no side
	// effects and may be retried.
	ErrTxnConflict = errors.New("transaction conflict")
)

// Txn is the view of the store inside a single atomic transaction. All
// reads and writes through it commit together or not at all.
type Txn interface {
	// GetProduct reads the current product document, including stock.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// CreateOrder stages a new order document.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// DecrementStock stages a stock decrement for the product.
	DecrementStock(ctx context.Context, productID string, quantity int) error

	// AppendEvent stages an outbox event alongside the other writes.
	AppendEvent(ctx context.Context, event *domain.OutboxEvent) error
}

// TxStore runs fn as one atomic transaction. When fn returns an error
// nothing is persisted and the error is returned unchanged. A commit
// lost to a concurrent writer surfaces as ErrTxnConflict; the caller
// owns the retry policy.
type TxStore interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error
}

// OutboxStore is the poller's view of pending events.
type OutboxStore interface {
	UnprocessedEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id string) error
}
