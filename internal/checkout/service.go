package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Nzd00905/s-shop/internal/domain"
	"github.com/Nzd00905/s-shop/internal/store"
	"github.com/Nzd00905/s-shop/pkg/metrics"
	"github.com/google/uuid"
)

const (
	// DefaultMaxAttempts bounds the retry loop around transaction
	// conflicts. Product-not-found and insufficient-stock rejections
	// are never retried.
	DefaultMaxAttempts = 3

	// DefaultRetryBackoff is the delay before the first retry; it
	// doubles on each subsequent one.
	DefaultRetryBackoff = 25 * time.Millisecond
)

// PlacementRequest is a proposed order: merged cart line items plus the
// totals the cart computed. Totals are trusted as-is.
type PlacementRequest struct {
	Items           []domain.LineItem
	ShippingAddress domain.ShippingAddress
	Total           float64
	ShippingFee     float64
	UserEmail       string // empty for guest checkout
}

type Service interface {
	PlaceOrder(ctx context.Context, req *PlacementRequest) (string, error)
}

// ServiceImpl places orders against a transactional store: it validates
// stock for every line item, creates the order document, and decrements
// product stock, all in one atomic transaction. Either everything
// commits or nothing does.
type ServiceImpl struct {
	store       store.TxStore
	metrics     *metrics.CheckoutMetrics
	maxAttempts int
	backoff     time.Duration
}

// NewService wires a placement service. Metrics may be nil.
func NewService(txStore store.TxStore, m *metrics.CheckoutMetrics) *ServiceImpl {
	return &ServiceImpl{
		store:       txStore,
		metrics:     m,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultRetryBackoff,
	}
}

func (s *ServiceImpl) PlaceOrder(ctx context.Context, req *PlacementRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	start := time.Now()
	orderID := uuid.NewString()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.store.RunTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
			return s.attemptPlacement(ctx, txn, orderID, req)
		})
		if err == nil {
			s.observe("success", start)
			return orderID, nil
		}

		if errors.Is(err, store.ErrTxnConflict) {
			if s.metrics != nil {
				s.metrics.Retries.Inc()
			}
			log.Printf("order %s: transaction conflict on attempt %d/%d", orderID, attempt, s.maxAttempts)
			if attempt < s.maxAttempts {
				select {
				case <-time.After(s.backoff << (attempt - 1)):
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
			continue
		}

		var notFound *ProductNotFoundError
		if errors.As(err, &notFound) {
			s.observe("product_not_found", start)
			return "", err
		}
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			s.observe("insufficient_stock", start)
			return "", err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}

		s.observe("store_unavailable", start)
		return "", &StoreUnavailableError{Err: err}
	}

	s.observe("conflict", start)
	return "", ErrCheckoutConflict
}

// attemptPlacement runs one transactional attempt. Any returned error
// aborts the transaction with zero side effects.
func (s *ServiceImpl) attemptPlacement(ctx context.Context, txn store.Txn, orderID string, req *PlacementRequest) error {
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := txn.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrProductNotFound) {
				return &ProductNotFoundError{ProductID: line.ProductID}
			}
			return err
		}
		if product.Stock < line.Quantity {
			return &InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: line.Quantity,
				Available: product.Stock,
			}
		}
		items = append(items, domain.SnapshotItem(product, line.Quantity))
	}

	address := req.ShippingAddress
	if req.UserEmail != "" {
		address.ID = req.UserEmail
	} else {
		address.ID = address.FullName
	}

	order := &domain.Order{
		ID:              orderID,
		Items:           items,
		Total:           req.Total,
		ShippingFee:     req.ShippingFee,
		Status:          domain.OrderStatusPending,
		Date:            time.Now().UTC(),
		ShippingAddress: address,
		UserEmail:       req.UserEmail,
	}

	if err := txn.CreateOrder(ctx, order); err != nil {
		return err
	}
	for _, line := range req.Items {
		if err := txn.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return appendPlacedEvent(ctx, txn, order)
}

type orderPlacedPayload struct {
	OrderID     string            `json:"order_id"`
	UserEmail   string            `json:"user_email,omitempty"`
	Total       float64           `json:"total"`
	ShippingFee float64           `json:"shipping_fee"`
	Items       []orderPlacedItem `json:"items"`
	PlacedAt    time.Time         `json:"placed_at"`
}

type orderPlacedItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func appendPlacedEvent(ctx context.Context, txn store.Txn, order *domain.Order) error {
	payload := orderPlacedPayload{
		OrderID:     order.ID,
		UserEmail:   order.UserEmail,
		Total:       order.Total,
		ShippingFee: order.ShippingFee,
		Items:       make([]orderPlacedItem, len(order.Items)),
		PlacedAt:    order.Date,
	}
	for i, item := range order.Items {
		payload.Items[i] = orderPlacedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal order placed payload: %w", err)
	}

	return txn.AppendEvent(ctx, &domain.OutboxEvent{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Type:      domain.EventTypeOrderPlaced,
		Payload:   data,
		CreatedAt: order.Date,
	})
}

func validateRequest(req *PlacementRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyOrder
	}
	seen := make(map[string]struct{}, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return fmt.Errorf("%w: product %s", ErrInvalidQuantity, line.ProductID)
		}
		if _, ok := seen[line.ProductID]; ok {
			return fmt.Errorf("%w: product %s", ErrDuplicateLineItem, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
	}
	if req.Total < 0 || req.ShippingFee < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (s *ServiceImpl) observe(result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Placements.WithLabelValues(result).Inc()
	s.metrics.DurationMS.Observe(float64(time.Since(start).Milliseconds()))
}
