package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finhelper/internal/backend"
	"finhelper/internal/cache"
	"finhelper/internal/cli"
	apphttp "finhelper/internal/http"
	"finhelper/internal/log"
	"finhelper/internal/services"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendCfg)
	if err != nil {
		cancelStartup()
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithHistoryCache(cfg.HistoryCacheSize, cfg.HistoryCacheTTL),
	}
	if result.Publisher != nil {
		opts = append(opts, services.WithPublisher(result.Publisher))
	}
	finance := services.NewFinanceService(startupCtx, result.Store, opts...)
	cancelStartup()

	srv := apphttp.NewServer(":"+cfg.Port, finance, logger, apphttp.DefaultOptions())

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	caches := cache.NewManager()
	caches.Register("history", finance.HistoryCache())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finhelper server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", result.Publisher != nil,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		caches.Start(gctx, cacheCleanupInterval)
		caches.Wait()
		return nil
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		exitCode = 1
	} else {
		cli.WaitForShutdown(ctx, done)
	}

	if err := result.Cleanup(); err != nil {
		logger.Error("Backend cleanup failed", "error", err)
		exitCode = 1
	}
	logger.Info("Server stopped gracefully")
	os.Exit(exitCode)
}
