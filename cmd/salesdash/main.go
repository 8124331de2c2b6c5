package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/backend"
	"salesdash/internal/cache"
	"salesdash/internal/cli"
	apphttp "salesdash/internal/http"
	applog "salesdash/internal/log"
	"salesdash/internal/services"
	"salesdash/internal/trades"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Refresh requests are optional; the API answers 503 without them.
	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, refresh requests disabled", "error", err)
		} else {
			publisher = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	reports := services.NewReportService(result.Backend, result.Backend, publisher, services.ReportOptions{
		FetchTimeout: cfg.FetchTimeout,
		CacheTTL:     cfg.CacheTTL,
		CacheSize:    cfg.CacheSize,
	})

	cacheManager := cache.NewManager()
	if c := reports.Cache(); c != nil {
		cacheManager.Register("report_fetch", c)
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	deps := apphttp.Deps{Reports: reports, Pairs: result.Backend, Logger: logger}

	var tradesRepo *trades.Repository
	if cfg.TradesDatabaseURL != "" {
		pool, err := trades.NewPool(ctx, cfg.TradesDatabaseURL)
		if err != nil {
			logger.Warn("Failed to connect to trades database, lookup disabled", "error", err)
		} else {
			defer pool.Close()
			tradesRepo = trades.New(pool)
			deps.Trades = tradesRepo
			logger.Info("Connected to trades database")
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		AuthUser:       cfg.AuthUser,
		AuthPassword:   cfg.AuthPassword,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.FetchTimeout + 15*time.Second,
	})
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	})

	logger.Info("Starting salesdash server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth", cfg.AuthEnabled(),
		"refresh", publisher != nil,
		"trades", tradesRepo != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	requests, limited := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"requests", requests.TotalRequests,
		"server_errors", requests.ServerErrors,
		"rate_limited", limited.Rejected)
}
