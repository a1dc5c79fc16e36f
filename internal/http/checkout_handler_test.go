package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Nzd00905/s-shop/internal/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkoutBody = `{
	"items": [{"product_id": "p1", "quantity": 2}],
	"shipping_address": {"full_name": "Jane Doe", "address": "1 Main St", "city": "Springfield", "state": "IL", "zip": "62701", "phone": "555-0100"},
	"total": 999.98,
	"shipping_fee": 4.99
}`

func postCheckout(handler *CheckoutHandler, body, email string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(body))
	request = withEmail(request, email)
	handler.PlaceOrder(recorder, request)
	return recorder
}

func TestPlaceOrder_Created(t *testing.T) {
	mock := &MockCheckoutService{OrderID: "order-1"}
	handler := NewCheckoutHandler(mock, 5*time.Second)

	recorder := postCheckout(handler, checkoutBody, "jane@example.com")

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp PlaceOrderResponseDTO
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, "Pending", resp.Status)

	// The handler passed the identity and the parsed cart through.
	require.NotNil(t, mock.Request)
	assert.Equal(t, "jane@example.com", mock.Request.UserEmail)
	require.Len(t, mock.Request.Items, 1)
	assert.Equal(t, "p1", mock.Request.Items[0].ProductID)
	assert.Equal(t, 2, mock.Request.Items[0].Quantity)
	assert.Equal(t, 999.98, mock.Request.Total)
	assert.Equal(t, 4.99, mock.Request.ShippingFee)
	assert.Equal(t, "Jane Doe", mock.Request.ShippingAddress.FullName)
}

func TestPlaceOrder_GuestHasEmptyEmail(t *testing.T) {
	mock := &MockCheckoutService{OrderID: "order-1"}
	handler := NewCheckoutHandler(mock, 5*time.Second)

	recorder := postCheckout(handler, checkoutBody, "")

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Empty(t, mock.Request.UserEmail)
}

func TestPlaceOrder_InvalidJSON(t *testing.T) {
	handler := NewCheckoutHandler(&MockCheckoutService{}, 5*time.Second)

	recorder := postCheckout(handler, "{not json", "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient stock",
			err:        &checkout.InsufficientStockError{ProductID: "p1", Name: "Phone", Requested: 2, Available: 1},
			wantStatus: http.StatusConflict,
			wantCode:   "insufficient_stock",
		},
		{
			name:       "product not found",
			err:        &checkout.ProductNotFoundError{ProductID: "p1"},
			wantStatus: http.StatusNotFound,
			wantCode:   "product_not_found",
		},
		{
			name:       "conflict retries exhausted",
			err:        checkout.ErrCheckoutConflict,
			wantStatus: http.StatusConflict,
			wantCode:   "checkout_conflict",
		},
		{
			name:       "store unavailable",
			err:        &checkout.StoreUnavailableError{Err: errors.New("down")},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "store_unavailable",
		},
		{
			name:       "empty order",
			err:        checkout.ErrEmptyOrder,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCheckoutHandler(&MockCheckoutService{Err: tt.err}, 5*time.Second)

			recorder := postCheckout(handler, checkoutBody, "jane@example.com")

			require.Equal(t, tt.wantStatus, recorder.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp["error"])
		})
	}
}

func TestPlaceOrder_InsufficientStockDetails(t *testing.T) {
	mock := &MockCheckoutService{
		Err: &checkout.InsufficientStockError{ProductID: "p1", Name: "Phone", Requested: 6, Available: 5},
	}
	handler := NewCheckoutHandler(mock, 5*time.Second)

	recorder := postCheckout(handler, checkoutBody, "")

	var resp stockErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp.ProductID)
	assert.Equal(t, 6, resp.Requested)
	assert.Equal(t, 5, resp.Available)
	assert.Contains(t, resp.Message, "Phone")
}
