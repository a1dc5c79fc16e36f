package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Nzd00905/s-shop/internal/checkout"
	"github.com/Nzd00905/s-shop/internal/domain"
)

type CheckoutHandler struct {
	service checkout.Service
	timeout time.Duration
}

func NewCheckoutHandler(service checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
	}
}

type LineItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ShippingAddressDTO struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone"`
}

type PlaceOrderRequestDTO struct {
	Items           []LineItemDTO      `json:"items"`
	ShippingAddress ShippingAddressDTO `json:"shipping_address"`
	Total           float64            `json:"total"`
	ShippingFee     float64            `json:"shipping_fee"`
}

type PlaceOrderResponseDTO struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type stockErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	ProductID string `json:"product_id"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.LineItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	orderID, err := h.service.PlaceOrder(ctx, &checkout.PlacementRequest{
		Items: items,
		ShippingAddress: domain.ShippingAddress{
			FullName: req.ShippingAddress.FullName,
			Address:  req.ShippingAddress.Address,
			City:     req.ShippingAddress.City,
			State:    req.ShippingAddress.State,
			Zip:      req.ShippingAddress.Zip,
			Phone:    req.ShippingAddress.Phone,
		},
		Total:       req.Total,
		ShippingFee: req.ShippingFee,
		UserEmail:   getUserEmail(r.Context()),
	})
	if err != nil {
		h.respondPlacementError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{
		OrderID: orderID,
		Status:  domain.OrderStatusPending.String(),
	})
}

// The checkout UI distinguishes item-level rejections, which let the
// user adjust the cart, from transient failures, which just ask for a
// retry.
func (h *CheckoutHandler) respondPlacementError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *checkout.ProductNotFoundError
	if errors.As(err, &notFound) {
		respondJSON(w, http.StatusNotFound, stockErrorResponse{
			Error:     "product_not_found",
			Message:   err.Error(),
			ProductID: notFound.ProductID,
		})
		return
	}

	var insufficient *checkout.InsufficientStockError
	if errors.As(err, &insufficient) {
		respondJSON(w, http.StatusConflict, stockErrorResponse{
			Error:     "insufficient_stock",
			Message:   err.Error(),
			ProductID: insufficient.ProductID,
			Requested: insufficient.Requested,
			Available: insufficient.Available,
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrCheckoutConflict):
		respondError(w, http.StatusConflict, "checkout_conflict", "could not place the order, please try again")
	case errors.Is(err, checkout.ErrEmptyOrder),
		errors.Is(err, checkout.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrDuplicateLineItem),
		errors.Is(err, checkout.ErrNegativeAmount):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "checkout timed out, please try again")
	default:
		var unavailable *checkout.StoreUnavailableError
		if errors.As(err, &unavailable) {
			respondError(w, http.StatusServiceUnavailable, "store_unavailable", "could not place the order, please try again later")
			return
		}
		log.Printf("request %s: unexpected placement error: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not place the order")
	}
}
