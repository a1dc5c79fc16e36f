package store

import (
	"context"
	"sync"

	"github.com/Nzd00905/s-shop/internal/domain"
)

// MemoryStore implements TxStore with optimistic concurrency control:
// every product document carries a version counter, transactions record
// the versions they read and buffer their writes, and commit fails with
// ErrTxnConflict if any read document changed in the meantime. Used by
// tests and local runs in place of MongoDB.
type MemoryStore struct {
	mu       sync.Mutex
	products map[string]*versionedProduct
	orders   map[string]*domain.Order
	events   map[string]*domain.OutboxEvent
	eventLog []string // event IDs in append order
}

type versionedProduct struct {
	product domain.Product
	version uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*versionedProduct),
		orders:   make(map[string]*domain.Order),
		events:   make(map[string]*domain.OutboxEvent),
	}
}

type stockDelta struct {
	productID string
	quantity  int
}

type memTxn struct {
	store      *MemoryStore
	reads      map[string]uint64
	orders     []domain.Order
	decrements []stockDelta
	events     []domain.OutboxEvent
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := &memTxn{store: s, reads: make(map[string]uint64)}
	if err := fn(ctx, txn); err != nil {
		return err
	}
	return s.commit(txn)
}

func (s *MemoryStore) commit(txn *memTxn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, version := range txn.reads {
		vp, ok := s.products[id]
		if !ok || vp.version != version {
			return ErrTxnConflict
		}
	}
	for _, d := range txn.decrements {
		if _, ok := s.products[d.productID]; !ok {
			return ErrTxnConflict
		}
	}

	for _, d := range txn.decrements {
		vp := s.products[d.productID]
		vp.product.Stock -= d.quantity
		vp.version++
	}
	for i := range txn.orders {
		order := txn.orders[i]
		s.orders[order.ID] = &order
	}
	for i := range txn.events {
		event := txn.events[i]
		s.events[event.ID] = &event
		s.eventLog = append(s.eventLog, event.ID)
	}
	return nil
}

func (t *memTxn) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	vp, ok := t.store.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	t.reads[id] = vp.version

	product := vp.product
	// Read-your-writes for decrements staged earlier in this transaction.
	for _, d := range t.decrements {
		if d.productID == id {
			product.Stock -= d.quantity
		}
	}
	return &product, nil
}

func (t *memTxn) CreateOrder(_ context.Context, order *domain.Order) error {
	t.orders = append(t.orders, *order)
	return nil
}

func (t *memTxn) DecrementStock(_ context.Context, productID string, quantity int) error {
	t.decrements = append(t.decrements, stockDelta{productID: productID, quantity: quantity})
	return nil
}

func (t *memTxn) AppendEvent(_ context.Context, event *domain.OutboxEvent) error {
	t.events = append(t.events, *event)
	return nil
}

// SeedProduct inserts or replaces a product outside any transaction.
func (s *MemoryStore) SeedProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vp, ok := s.products[p.ID]; ok {
		vp.product = p
		vp.version++
		return
	}
	s.products[p.ID] = &versionedProduct{product: p}
}

// DeleteProduct removes a product outside any transaction.
func (s *MemoryStore) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// Product returns a copy of the current product document.
func (s *MemoryStore) Product(id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vp, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	product := vp.product
	return &product, nil
}

// Order returns a copy of a committed order.
func (s *MemoryStore) Order(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

// OrderCount reports how many orders have committed.
func (s *MemoryStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *MemoryStore) UnprocessedEvents(_ context.Context, limit int) ([]domain.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OutboxEvent
	for _, id := range s.eventLog {
		event := s.events[id]
		if event.Processed {
			continue
		}
		out = append(out, *event)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkEventProcessed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return ErrEventNotFound
	}
	event.Processed = true
	return nil
}
