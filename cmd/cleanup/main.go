package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"privateinbox/backend/internal/config"
	"privateinbox/backend/internal/logger"
	"privateinbox/backend/internal/service"
	"privateinbox/backend/internal/storage/factory"
	"privateinbox/backend/internal/storage/redis"
)

// main 对配置的存储执行一次过期地址清理后退出，适合由 cron 调用。
func main() {
	timeout := flag.Duration("timeout", time.Minute, "cleanup timeout")
	useLease := flag.Bool("lease", true, "acquire the redis cleanup lease when redis is configured")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, log, *timeout, *useLease))
}

func run(cfg *config.Config, log *zap.Logger, timeout time.Duration, useLease bool) int {
	defer func() { _ = log.Sync() }()

	store, err := factory.Open(cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", zap.Error(err))
		return 1
	}
	defer func() { _ = factory.Close(store) }()

	cleanupService := service.NewCleanupService(store, log.Named("cleanup"))

	if useLease && cfg.Redis.Address != "" {
		redisClient, err := redis.New(&cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, running without lease", zap.Error(err))
		} else {
			defer redisClient.Close()
			cleanupService.SetLocker(redis.NewLease(redisClient, service.CleanupLeaseKey), service.DefaultLeaseTTL)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	count, err := cleanupService.RunOnce(ctx)
	switch {
	case errors.Is(err, service.ErrCleanupSkipped):
		log.Info("cleanup skipped, another instance holds the lease")
		return 0
	case err != nil:
		log.Error("failed to deactivate expired addresses", zap.Error(err))
		return 1
	}

	log.Info("cleanup finished", zap.Int64("deactivated", count))
	return 0
}
