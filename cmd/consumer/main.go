package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/vidproxy/internal/container"
	"github.com/serroba/vidproxy/internal/messaging"
	"go.uber.org/zap"
)

// The consumer reads analytics events from Redis streams published by servers
// running with --analytics=redis.
func main() {
	opts := &container.Options{
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		Analytics: container.AnalyticsRedis,
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.MessagingPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		logger.Fatal("failed to build consumer group", zap.Error(err))
	}

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("consuming analytics events", zap.String("redis", opts.RedisAddr))

	<-ctx.Done()

	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}
