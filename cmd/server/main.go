package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dataviz-jp/account-api/internal/api"
	"github.com/dataviz-jp/account-api/internal/api/billing"
	"github.com/dataviz-jp/account-api/internal/auth"
	"github.com/dataviz-jp/account-api/internal/config"
	"github.com/dataviz-jp/account-api/internal/loaders"
	"github.com/dataviz-jp/account-api/internal/storage"
	"github.com/dataviz-jp/account-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := utils.InitLogger(cfg.LogLevel, cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := loaders.NewPostgresClient(ctx, cfg.DatabaseURL)
	if err != nil {
		utils.Zlog.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var cache *loaders.RedisClient
	if cfg.RedisAddr != "" {
		cache = loaders.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := cache.Ping(ctx); err != nil {
			utils.Zlog.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer cache.Close()
	} else {
		utils.Zlog.Warn("REDIS_ADDR not set, entitlement caching disabled")
	}

	objects, err := storage.NewS3Store(ctx, cfg.StorageBucket, cfg.StorageRegion, cfg.StorageEndpoint)
	if err != nil {
		utils.Zlog.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	verifier, err := auth.NewVerifier(cfg.JwtSecret)
	if err != nil {
		utils.Zlog.Fatal("Failed to initialize token verifier", zap.Error(err))
	}

	billing.InitStripe(cfg.StripeSecretKey)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	cleaner := api.RegisterRoutes(router, db, cache, objects, verifier, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Zlog.Info("Server listening", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	utils.Zlog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Zlog.Error("Server shutdown failed", zap.Error(err))
	}
	cleaner.Stop(shutdownCtx)
}
