package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Nzd00905/s-shop/internal/settings"
)

type SettingsHandler struct {
	provider *settings.Provider
	timeout  time.Duration
}

func NewSettingsHandler(provider *settings.Provider, timeout time.Duration) *SettingsHandler {
	return &SettingsHandler{
		provider: provider,
		timeout:  timeout,
	}
}

// GET /api/v1/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	current, err := h.provider.Get(ctx)
	if err != nil {
		log.Printf("request %s: failed to load settings: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not load settings")
		return
	}

	respondJSON(w, http.StatusOK, current)
}

// PUT /api/v1/admin/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req settings.StoreSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ShippingFee < 0 {
		respondError(w, http.StatusBadRequest, "invalid_shipping_fee", "shipping fee must be non-negative")
		return
	}

	if err := h.provider.Update(ctx, req); err != nil {
		log.Printf("request %s: failed to update settings: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not update settings")
		return
	}

	respondJSON(w, http.StatusOK, req)
}
