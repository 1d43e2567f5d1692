// Command expire-holds runs one pass of the hold expiration sweep and
// exits. Exit code 0 on success, non-zero on a storage failure.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/cimillas/flashsale/internal/cache"
	"github.com/cimillas/flashsale/internal/clock"
	"github.com/cimillas/flashsale/internal/config"
	"github.com/cimillas/flashsale/internal/storage/postgres"
	"github.com/cimillas/flashsale/internal/sweep"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := log.Default()
	cfg := config.Load(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("connect to db: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Printf("db ping: %v", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	productCache := cache.New(redisClient, cfg.ProductCacheTTL, logger)

	productRepo := postgres.NewProductRepository(pool)
	holdRepo := postgres.NewHoldRepository(pool)

	sweeper := sweep.New(holdRepo, productRepo, productCache, clock.NewSystem(), logger)

	expired, err := sweeper.Sweep(ctx)
	if err != nil {
		logger.Printf("sweep failed: %v", err)
		os.Exit(1)
	}
	logger.Printf("expired %d hold(s)", expired)
}
