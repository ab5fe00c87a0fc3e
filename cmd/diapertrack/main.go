package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"diapertrack/internal/backend"
	"diapertrack/internal/cli"
	apphttp "diapertrack/internal/http"
	applog "diapertrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	logger.Info("Starting diapertrack", "port", cfg.Port, "metrics_enabled", cfg.MetricsEnabled)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	be, err := backend.New(startupCtx, cfg, logger, backend.Options{AMQP: true, Metrics: true})
	cancelStartup()
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:     be.Store,
		Brands:    be.Brands,
		Purchases: be.Purchases,
		Exports:   be.Exports,
		Ready:     be.Store.Ping,
		Metrics:   be.Metrics,
		Logger:    logger.WithComponent(applog.ComponentHTTP),
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		_ = be.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", applog.FieldError, err)
		}
		if err := be.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "async_exports", be.Exports.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", applog.FieldError, err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	<-done
}
