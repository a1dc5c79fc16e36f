package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Nzd00905/s-shop/internal/catalog"
	"github.com/Nzd00905/s-shop/internal/store"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	repo    catalog.Repository
	timeout time.Duration
}

func NewProductHandler(repo catalog.Repository, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		repo:    repo,
		timeout: timeout,
	}
}

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.repo.ListProducts(ctx)
	if err != nil {
		log.Printf("request %s: failed to list products: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not fetch products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product_not_found", "product not found")
			return
		}
		log.Printf("request %s: failed to get product %s: %v", getRequestID(r.Context()), id, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not fetch product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}
