package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"momo/internal/amqp"
	"momo/internal/backend"
	"momo/internal/cache"
	"momo/internal/cli"
	apphttp "momo/internal/http"
	"momo/internal/log"
	"momo/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize transaction source", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	snapshots := cache.NewLRUCache[*services.Snapshot](1, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(snapshots)
	if cfg.CacheTTL > 0 {
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	dashboard := services.NewDashboardService(res.Backend, snapshots, logger)

	// Import events invalidate the snapshot. Each server instance binds its
	// own private queue so every replica sees every event.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "", logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled, snapshot refreshes on cache expiry only")
	}

	srv := apphttp.NewServer(":"+cfg.Port, dashboard, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              res.Ready,
		RequestTimeout:     cfg.APITimeout,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		cacheManager.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Failed to close transaction source", log.FieldError, err)
		}
	})

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeImportCompleted(ctx, dashboard.HandleImportCompleted)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Import event consumption stopped", log.FieldError, err)
			}
		}()
	}

	logger.Info("Starting momo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
