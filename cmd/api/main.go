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

	"github.com/cimillas/flashsale/internal/app"
	"github.com/cimillas/flashsale/internal/cache"
	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/config"
	"github.com/cimillas/flashsale/internal/reconcile"
	"github.com/cimillas/flashsale/internal/storage/postgres"
	"github.com/cimillas/flashsale/internal/sweep"
	transporthttp "github.com/cimillas/flashsale/internal/transport/http"
	"github.com/cimillas/flashsale/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()
	cfg := config.Load(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	productCache := cache.New(redisClient, cfg.ProductCacheTTL, logger)

	sysClock := clock.NewSystem()

	productRepo := postgres.NewProductRepository(pool)
	holdRepo := postgres.NewHoldRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	webhookRepo := postgres.NewWebhookRepository(pool)

	reconcileSvc := app.NewReconcileService(orderRepo, holdRepo, productRepo, webhookRepo, productCache, sysClock, logger)
	dispatcher := reconcile.NewDispatcher(reconcileSvc, cfg.ReconcileWorkers, cfg.ReconcileQueueSize, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Stop()
	}()

	holdSvc := app.NewHoldService(productRepo, holdRepo, productCache, sysClock, logger, app.WithHoldTTL(cfg.HoldTTL))
	orderSvc := app.NewOrderService(holdRepo, productRepo, orderRepo, dispatcher, sysClock)
	webhookSvc := app.NewWebhookService(webhookRepo, holdRepo, orderRepo, productRepo, productCache, sysClock, logger)
	productSvc := app.NewProductService(productRepo, productCache, logger)
	adminSvc := app.NewAdminService(productRepo, sysClock)

	sweeper := sweep.New(holdRepo, productRepo, productCache, sysClock, logger, sweep.WithInterval(cfg.SweepInterval))
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweepCtx)
	defer stopSweeper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", transporthttp.HealthHandler)
	mux.Handle("GET /api/products/{id}", transporthttp.HandleGetProduct(productSvc))
	mux.Handle("POST /api/holds", transporthttp.HandleCreateHold(holdSvc))
	mux.Handle("POST /api/orders", transporthttp.HandleCreateOrder(orderSvc))
	mux.Handle("POST /api/payments/webhook", transporthttp.HandlePaymentWebhook(webhookSvc))
	mux.Handle("/api/admin/products", transporthttp.HandleAdminProducts(adminSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
