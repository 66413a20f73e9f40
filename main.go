package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/badwords"
	"github.com/joy095/servicehub/config"
	"github.com/joy095/servicehub/config/db"
	redisclient "github.com/joy095/servicehub/config/redis"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/middlewares/cors"
	logger_middleware "github.com/joy095/servicehub/middlewares/logger"
	"github.com/joy095/servicehub/middlewares/metrics"
	"github.com/joy095/servicehub/routes"
	"github.com/shopspring/decimal"
)

func init() {
	logger.InitLoggers()
	config.LoadEnv()

	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logger.ErrorLogger.Fatal("JWT_SECRET not set")
	}
	if cfg.RazorpayKeySecret == "" || cfg.RazorpayWebhookSecret == "" {
		logger.WarnLogger.Warn("Razorpay secrets not set, online payment verification will reject every request")
	}

	if err := badwords.LoadBadWords(cfg.BadWordsFile); err != nil {
		logger.WarnLogger.Warnf("Content filter disabled: %v", err)
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := db.Connect(dbCtx, cfg.DatabaseURL)
	dbCancel()
	if err != nil {
		logger.ErrorLogger.Fatalf("Database unavailable: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(pool); err != nil {
		logger.ErrorLogger.Fatalf("Migration failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	rdb, err := redisclient.Connect(ctx, cfg.RedisURL)
	cancel()
	if err != nil {
		logger.WarnLogger.Warnf("Redis unavailable, using in-memory rate limits and no live notifications: %v", err)
	}
	defer redisclient.CloseRedis()

	deps := routes.NewDeps(cfg, pool, rdb)
	defer func() {
		if err := deps.Events.Close(); err != nil {
			logger.ErrorLogger.Errorf("Failed to close event publisher: %v", err)
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.CorsMiddleware())
	r.Use(logger_middleware.GinLogger())
	r.Use(metrics.Middleware())

	routes.RegisterRoutes(r, deps)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok from servicehub payments"})
	})
	r.GET("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoLogger.Infof("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLogger.Fatalf("Server failed to listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorLogger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.InfoLogger.Info("Server exited gracefully.")
}
