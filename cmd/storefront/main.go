package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nzd00905/s-shop/internal/cache"
	"github.com/Nzd00905/s-shop/internal/catalog"
	"github.com/Nzd00905/s-shop/internal/checkout"
	"github.com/Nzd00905/s-shop/internal/config"
	h "github.com/Nzd00905/s-shop/internal/http"
	"github.com/Nzd00905/s-shop/internal/orders"
	"github.com/Nzd00905/s-shop/internal/publisher"
	"github.com/Nzd00905/s-shop/internal/settings"
	"github.com/Nzd00905/s-shop/internal/store"
	"github.com/Nzd00905/s-shop/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Set up MongoDB connection
	mongoDB, err := store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	txStore := store.NewMongoStore(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	serverMetrics := metrics.NewServerMetrics(prometheus.DefaultRegisterer)

	placementService := checkout.NewBreakerService(checkout.NewService(txStore, checkoutMetrics))

	catalogRepo := catalog.NewCachedRepository(
		catalog.NewMongoRepository(mongoDB),
		cache.NewRedisCache(redisClient),
	)
	ordersRepo := orders.NewMongoRepository(mongoDB)
	settingsProvider := settings.NewProvider(settings.NewMongoRepository(mongoDB))

	// Outbox poller publishes order-placed events when brokers are
	// configured.
	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(txStore, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(pollerCtx)
		log.Printf("Outbox poller publishing to %v", cfg.KafkaBrokers)
	}

	router := h.NewRouter(
		h.RouterConfig{
			RequestTimeout: cfg.RequestTimeout,
			AdminToken:     cfg.AdminToken,
			ServerMetrics:  serverMetrics,
		},
		h.NewCheckoutHandler(placementService, cfg.RequestTimeout),
		h.NewProductHandler(catalogRepo, cfg.RequestTimeout),
		h.NewOrdersHandler(ordersRepo, cfg.RequestTimeout),
		h.NewSettingsHandler(settingsProvider, cfg.RequestTimeout),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront backend starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Printf("failed to disconnect MongoDB: %v", err)
	}
	log.Println("server exited")
}
