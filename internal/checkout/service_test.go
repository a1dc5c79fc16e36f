package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Nzd00905/s-shop/internal/domain"
	"github.com/Nzd00905/s-shop/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(s store.TxStore) *ServiceImpl {
	svc := NewService(s, nil)
	svc.backoff = time.Millisecond
	return svc
}

func seedPhone(s *store.MemoryStore, stock int) domain.Product {
	p := domain.Product{
		ID:          "prod-1",
		Name:        "Phone",
		Description: "A phone",
		Price:       499.99,
		Images:      []string{"phone.png"},
		Stock:       stock,
		Rating:      4.5,
		Category:    "Electronics",
	}
	s.SeedProduct(p)
	return p
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName: "Jane Doe",
		Address:  "1 Main St",
		City:     "Springfield",
		State:    "IL",
		Zip:      "62701",
		Phone:    "555-0100",
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 5)
	svc := newTestService(mem)

	req := &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: product.ID, Quantity: 5}},
		ShippingAddress: testAddress(),
		Total:           2499.95,
		ShippingFee:     0,
		UserEmail:       "jane@example.com",
	}

	orderID, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	// Stock fully decremented.
	updated, err := mem.Product(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)

	// Order is visible with Pending status and a full snapshot.
	order, err := mem.Order(orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 2499.95, order.Total)
	assert.Equal(t, "jane@example.com", order.UserEmail)
	assert.Equal(t, "jane@example.com", order.ShippingAddress.ID)
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, product.ID, item.ProductID)
	assert.Equal(t, product.Name, item.Name)
	assert.Equal(t, product.Price, item.Price)
	assert.Equal(t, product.Images, item.Images)
	assert.Equal(t, product.Category, item.Category)
	assert.Equal(t, 5, item.Stock) // availability at purchase time
	assert.Equal(t, 5, item.Quantity)
}

func TestPlaceOrder_GuestCheckout(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 5)
	svc := newTestService(mem)

	req := &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		Total:           499.99,
	}

	orderID, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	order, err := mem.Order(orderID)
	require.NoError(t, err)
	assert.Empty(t, order.UserEmail)
	assert.Equal(t, "Jane Doe", order.ShippingAddress.ID)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 5)
	svc := newTestService(mem)

	req := &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: product.ID, Quantity: 6}},
		ShippingAddress: testAddress(),
		Total:           2999.94,
	}

	// Rejection is idempotent: same inputs, same answer, no state change.
	for i := 0; i < 2; i++ {
		_, err := svc.PlaceOrder(context.Background(), req)
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, product.ID, insufficient.ProductID)
		assert.Equal(t, 6, insufficient.Requested)
		assert.Equal(t, 5, insufficient.Available)
	}

	updated, err := mem.Product(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Stock)
	assert.Equal(t, 0, mem.OrderCount())
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(mem)

	req := &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: "ghost", Quantity: 1}},
		ShippingAddress: testAddress(),
		Total:           10,
	}

	_, err := svc.PlaceOrder(context.Background(), req)
	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ProductID)
	assert.Equal(t, 0, mem.OrderCount())
}

func TestPlaceOrder_PartialFailureLeavesNoSideEffects(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 5)
	svc := newTestService(mem)

	// First line is satisfiable, second references a deleted product.
	req := &PlacementRequest{
		Items: []domain.LineItem{
			{ProductID: product.ID, Quantity: 2},
			{ProductID: "ghost", Quantity: 1},
		},
		ShippingAddress: testAddress(),
		Total:           1009.98,
	}

	_, err := svc.PlaceOrder(context.Background(), req)
	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)

	updated, err := mem.Product(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Stock)
	assert.Equal(t, 0, mem.OrderCount())

	events, err := mem.UnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPlaceOrder_MultipleItems(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.SeedProduct(domain.Product{ID: "a", Name: "A", Price: 10, Stock: 3})
	mem.SeedProduct(domain.Product{ID: "b", Name: "B", Price: 20, Stock: 7})
	svc := newTestService(mem)

	req := &PlacementRequest{
		Items: []domain.LineItem{
			{ProductID: "a", Quantity: 3},
			{ProductID: "b", Quantity: 2},
		},
		ShippingAddress: testAddress(),
		Total:           75,
		ShippingFee:     5,
	}

	orderID, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	a, _ := mem.Product("a")
	b, _ := mem.Product("b")
	assert.Equal(t, 0, a.Stock)
	assert.Equal(t, 5, b.Stock)

	order, err := mem.Order(orderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 5.0, order.ShippingFee)
}

func TestPlaceOrder_ConcurrentOverlappingProducts(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 5)
	svc := newTestService(mem)

	req := func() *PlacementRequest {
		return &PlacementRequest{
			Items:           []domain.LineItem{{ProductID: product.ID, Quantity: 3}},
			ShippingAddress: testAddress(),
			Total:           1499.97,
		}
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = svc.PlaceOrder(context.Background(), req())
		}(i)
	}
	close(start)
	wg.Wait()

	var successes, rejections int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var insufficient *InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
			assert.Equal(t, 3, insufficient.Requested)
			assert.Equal(t, 2, insufficient.Available)
			rejections++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)

	updated, err := mem.Product(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stock)
	assert.Equal(t, 1, mem.OrderCount())
}

func TestPlaceOrder_NoOversellUnderLoad(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 10)
	svc := newTestService(mem)

	const workers = 20
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = svc.PlaceOrder(context.Background(), &PlacementRequest{
				Items:           []domain.LineItem{{ProductID: product.ID, Quantity: 1}},
				ShippingAddress: testAddress(),
				Total:           499.99,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		// Losers must see a clean rejection, never a partial write.
		var insufficient *InsufficientStockError
		if !errors.As(err, &insufficient) {
			require.ErrorIs(t, err, ErrCheckoutConflict)
		}
	}

	updated, err := mem.Product(product.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, updated.Stock, 0)
	assert.Equal(t, 10-successes, updated.Stock)
	assert.Equal(t, successes, mem.OrderCount())
}

func TestPlaceOrder_HistoricalImmutability(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 5)
	svc := newTestService(mem)

	orderID, err := svc.PlaceOrder(context.Background(), &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		Total:           499.99,
	})
	require.NoError(t, err)

	// Later catalog edits and deletions must not touch the snapshot.
	mem.SeedProduct(domain.Product{ID: product.ID, Name: "Renamed", Price: 1, Stock: 100})
	mem.DeleteProduct(product.ID)

	order, err := mem.Order(orderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Phone", order.Items[0].Name)
	assert.Equal(t, 499.99, order.Items[0].Price)
}

func TestPlaceOrder_OutboxEventCommittedWithOrder(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 5)
	svc := newTestService(mem)

	orderID, err := svc.PlaceOrder(context.Background(), &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
		Total:           999.98,
		UserEmail:       "jane@example.com",
	})
	require.NoError(t, err)

	events, err := mem.UnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeOrderPlaced, events[0].Type)
	assert.Equal(t, orderID, events[0].OrderID)
	assert.Contains(t, string(events[0].Payload), orderID)
}

// conflictStore fails the first n transactions with a conflict, then
// delegates to the wrapped store.
type conflictStore struct {
	inner     store.TxStore
	remaining int
	attempts  int
}

func (c *conflictStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, txn store.Txn) error) error {
	c.attempts++
	if c.remaining > 0 {
		c.remaining--
		return store.ErrTxnConflict
	}
	return c.inner.RunTransaction(ctx, fn)
}

func TestPlaceOrder_RetriesConflictThenSucceeds(t *testing.T) {
	mem := store.NewMemoryStore()
	product := seedPhone(mem, 5)
	flaky := &conflictStore{inner: mem, remaining: 2}
	svc := newTestService(flaky)

	orderID, err := svc.PlaceOrder(context.Background(), &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		Total:           499.99,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.attempts)

	_, err = mem.Order(orderID)
	require.NoError(t, err)
}

func TestPlaceOrder_ConflictRetriesAreBounded(t *testing.T) {
	mem := store.NewMemoryStore()
	seedPhone(mem, 5)
	flaky := &conflictStore{inner: mem, remaining: 100}
	svc := newTestService(flaky)

	_, err := svc.PlaceOrder(context.Background(), &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: "prod-1", Quantity: 1}},
		ShippingAddress: testAddress(),
		Total:           499.99,
	})
	require.ErrorIs(t, err, ErrCheckoutConflict)
	assert.Equal(t, DefaultMaxAttempts, flaky.attempts)
	assert.Equal(t, 0, mem.OrderCount())
}

// failingStore simulates a store outage.
type failingStore struct {
	err error
}

func (f *failingStore) RunTransaction(context.Context, func(ctx context.Context, txn store.Txn) error) error {
	return f.err
}

func TestPlaceOrder_StoreUnavailable(t *testing.T) {
	svc := newTestService(&failingStore{err: errors.New("connection refused")})

	_, err := svc.PlaceOrder(context.Background(), &PlacementRequest{
		Items:           []domain.LineItem{{ProductID: "prod-1", Quantity: 1}},
		ShippingAddress: testAddress(),
		Total:           10,
	})
	var unavailable *StoreUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestPlaceOrder_Validation(t *testing.T) {
	svc := newTestService(store.NewMemoryStore())
	addr := testAddress()

	tests := []struct {
		name string
		req  *PlacementRequest
		want error
	}{
		{
			name: "empty items",
			req:  &PlacementRequest{ShippingAddress: addr, Total: 10},
			want: ErrEmptyOrder,
		},
		{
			name: "zero quantity",
			req: &PlacementRequest{
				Items:           []domain.LineItem{{ProductID: "a", Quantity: 0}},
				ShippingAddress: addr,
				Total:           10,
			},
			want: ErrInvalidQuantity,
		},
		{
			name: "duplicate product",
			req: &PlacementRequest{
				Items: []domain.LineItem{
					{ProductID: "a", Quantity: 1},
					{ProductID: "a", Quantity: 2},
				},
				ShippingAddress: addr,
				Total:           10,
			},
			want: ErrDuplicateLineItem,
		},
		{
			name: "negative total",
			req: &PlacementRequest{
				Items:           []domain.LineItem{{ProductID: "a", Quantity: 1}},
				ShippingAddress: addr,
				Total:           -1,
			},
			want: ErrNegativeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
