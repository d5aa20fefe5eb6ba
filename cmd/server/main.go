package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"privateinbox/backend/internal/config"
	"privateinbox/backend/internal/domain"
	"privateinbox/backend/internal/generator"
	"privateinbox/backend/internal/health"
	"privateinbox/backend/internal/logger"
	"privateinbox/backend/internal/monitoring"
	"privateinbox/backend/internal/service"
	"privateinbox/backend/internal/storage/factory"
	"privateinbox/backend/internal/storage/redis"
	httptransport "privateinbox/backend/internal/transport/http"
)

// main 启动 HTTP API 与过期地址清理任务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting privateinbox server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.String("store_type", cfg.Store.Type),
	)

	store, err := factory.Open(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer func() {
		if err := factory.Close(store); err != nil {
			log.Warn("storage close warning", zap.Error(err))
		}
	}()

	// 监控与健康检查
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	checker := health.NewChecker(log)
	checker.AddPinger("store", store)

	// 服务层
	addressService := service.NewAddressService(store, generator.NewDefault(), log.Named("address"))
	addressService.SetMetrics(metrics)

	cleanupService := service.NewCleanupService(store, log.Named("cleanup"))
	cleanupService.SetMetrics(metrics)

	if cfg.Redis.Address != "" {
		redisClient, err := redis.New(&cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, cleanup runs without lease", zap.Error(err))
		} else {
			defer redisClient.Close()
			lease := redis.NewLease(redisClient, service.CleanupLeaseKey)
			cleanupService.SetLocker(lease, service.DefaultLeaseTTL)
			checker.AddPinger("redis", redisClient)
			log.Info("cleanup lease enabled",
				zap.String("key", lease.Key()),
				zap.Duration("ttl", service.DefaultLeaseTTL),
			)
		}
	}

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		AddressService: addressService,
		Metrics:        metrics,
		Health:         checker,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// 过期地址清理 goroutine
	group.Go(func() error {
		return cleanupService.Run(groupCtx, domain.CleanupInterval)
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
