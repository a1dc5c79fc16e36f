package http

import (
	"context"
	"net/http"

	"github.com/Nzd00905/s-shop/internal/checkout"
	"github.com/Nzd00905/s-shop/internal/domain"
	"github.com/go-chi/chi/v5"
)

// MockCheckoutService implements checkout.Service for testing
type MockCheckoutService struct {
	OrderID string
	Err     error
	Request *checkout.PlacementRequest // captures the last request
}

func (m *MockCheckoutService) PlaceOrder(_ context.Context, req *checkout.PlacementRequest) (string, error) {
	m.Request = req
	if m.Err != nil {
		return "", m.Err
	}
	return m.OrderID, nil
}

// MockOrdersRepo implements orders.Repository for testing
type MockOrdersRepo struct {
	Order         *domain.Order
	Orders        []domain.Order
	Err           error
	UpdatedID     string
	UpdatedStatus domain.OrderStatus
}

func (m *MockOrdersRepo) ListOrders(context.Context) ([]domain.Order, error) {
	return m.Orders, m.Err
}

func (m *MockOrdersRepo) ListUserOrders(context.Context, string) ([]domain.Order, error) {
	return m.Orders, m.Err
}

func (m *MockOrdersRepo) GetOrder(context.Context, string) (*domain.Order, error) {
	return m.Order, m.Err
}

func (m *MockOrdersRepo) UpdateStatus(_ context.Context, id string, to domain.OrderStatus) error {
	if m.Err != nil {
		return m.Err
	}
	m.UpdatedID = id
	m.UpdatedStatus = to
	return nil
}

// MockCatalogRepo implements catalog.Repository for testing
type MockCatalogRepo struct {
	Product  *domain.Product
	Products []domain.Product
	Err      error
}

func (m *MockCatalogRepo) ListProducts(context.Context) ([]domain.Product, error) {
	return m.Products, m.Err
}

func (m *MockCatalogRepo) GetProduct(context.Context, string) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Product, nil
}

func (m *MockCatalogRepo) CreateProduct(context.Context, *domain.Product) error  { return m.Err }
func (m *MockCatalogRepo) ReplaceProduct(context.Context, *domain.Product) error { return m.Err }
func (m *MockCatalogRepo) DeleteProduct(context.Context, string) error           { return m.Err }

// --- helpers ---

func withEmail(r *http.Request, email string) *http.Request {
	ctx := context.WithValue(r.Context(), userEmailKey, email)
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
