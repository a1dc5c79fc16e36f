package http

import (
	"net/http"
	"time"

	"github.com/Nzd00905/s-shop/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	AdminToken     string
	ServerMetrics  *metrics.ServerMetrics
}

// NewRouter assembles the public storefront API and the token-guarded
// admin surface.
func NewRouter(
	cfg RouterConfig,
	checkoutHandler *CheckoutHandler,
	productHandler *ProductHandler,
	ordersHandler *OrdersHandler,
	settingsHandler *SettingsHandler,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(IdentityMiddleware)
	if cfg.ServerMetrics != nil {
		r.Use(MetricsMiddleware(cfg.ServerMetrics))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", checkoutHandler.PlaceOrder)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{product_id}", productHandler.Get)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListUserOrders)
			r.Get("/{order_id}", ordersHandler.Get)
		})

		r.Get("/settings", settingsHandler.Get)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(cfg.AdminToken))
			r.Get("/orders", ordersHandler.ListAllOrders)
			r.Patch("/orders/{order_id}/status", ordersHandler.UpdateStatus)
			r.Put("/settings", settingsHandler.Update)
		})
	})

	return r
}
