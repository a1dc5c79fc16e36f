package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Nzd00905/s-shop/internal/domain"
	"github.com/Nzd00905/s-shop/internal/orders"
	"github.com/Nzd00905/s-shop/internal/store"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	repo    orders.Repository
	timeout time.Duration
}

func NewOrdersHandler(repo orders.Repository, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		repo:    repo,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	email := getUserEmail(r.Context())
	if email == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "order history requires a signed-in user")
		return
	}

	list, err := h.repo.ListUserOrders(ctx, email)
	if err != nil {
		log.Printf("request %s: failed to list orders: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not fetch orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": list})
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "order_id")
	order, err := h.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order_not_found", "order not found")
			return
		}
		log.Printf("request %s: failed to get order %s: %v", getRequestID(r.Context()), id, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not fetch order")
		return
	}

	// Guests have no order history; signed-in users see only their own.
	email := getUserEmail(r.Context())
	if email == "" || order.UserEmail != email {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/admin/orders
func (h *OrdersHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.repo.ListOrders(ctx)
	if err != nil {
		log.Printf("request %s: failed to list all orders: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not fetch orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": list})
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// PATCH /api/v1/admin/orders/{order_id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "order_id")
	err := h.repo.UpdateStatus(ctx, id, domain.OrderStatus(req.Status))
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
	case errors.Is(err, store.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, orders.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, orders.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	default:
		log.Printf("request %s: failed to update order %s status: %v", getRequestID(r.Context()), id, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not update order status")
	}
}
