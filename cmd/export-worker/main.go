package main

import (
	"context"
	"errors"
	"os"
	"time"

	"diapertrack/internal/backend"
	"diapertrack/internal/cli"
	applog "diapertrack/internal/log"
	"diapertrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	if !cfg.AsyncExportsEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	logger.Info("Starting export-worker",
		"queue", cfg.AMQPQueue,
		"export_dir", cfg.ExportDir,
		"sheets_enabled", cfg.SheetsEnabled())

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	be, err := backend.New(startupCtx, cfg, logger, backend.Options{AMQP: true, RequireAMQP: true})
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}

	publisher, err := backend.NewPublisher(startupCtx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets publisher", applog.FieldError, err)
		_ = be.Close()
		os.Exit(1)
	}
	if publisher == nil {
		logger.Info("Google Sheets disabled - gsheet export jobs will be rejected")
	}

	exports := worker.NewExportWorker(be.Store, publisher, cfg.ExportDir, nil)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		if err := be.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	err = be.AMQP.ConsumeExportRequests(ctx, exports.HandleExportRequest)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export consumption stopped", applog.FieldError, err)
		_ = be.Close()
		os.Exit(1)
	}
	<-done
}
