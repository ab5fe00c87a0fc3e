// Package backend wires storage, caching, metrics and the optional broker and
// Sheets integrations from configuration. Every binary builds its services here.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diapertrack/internal/amqp"
	"diapertrack/internal/cache"
	"diapertrack/internal/config"
	applog "diapertrack/internal/log"
	"diapertrack/internal/metrics"
	"diapertrack/internal/services"
	"diapertrack/internal/sheets"
	gsheet "diapertrack/internal/sheets/google"
	"diapertrack/internal/storage"
)

// Options selects the optional integrations a binary needs.
type Options struct {
	// AMQP dials the broker when AMQP_URL is set. A failed dial is fatal only
	// when RequireAMQP is also set.
	AMQP        bool
	RequireAMQP bool
	// Metrics builds a fresh prometheus registry when METRICS_ENABLED is true.
	Metrics bool
}

// Backend is the set of wired services shared by the binaries.
type Backend struct {
	Store     *storage.Store
	Brands    *cache.BrandRegistry
	Caches    *cache.Manager
	Metrics   *metrics.Metrics
	AMQP      *amqp.Client
	Purchases *services.PurchaseService
	Exports   *services.ExportService

	logger  *applog.Logger
	closers []func() error
}

// New opens and migrates the store and builds the services around it.
func New(ctx context.Context, cfg *config.Config, logger *applog.Logger, opts Options) (*Backend, error) {
	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	b := &Backend{Store: store, logger: logger}
	b.closers = append(b.closers, store.Close)

	if err := store.Migrate(ctx); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("migrate storage: %w", err)
	}
	logger.Info("Initialized SQLite storage",
		"db_path", cfg.SQLiteDBPath,
		applog.FieldOperation, applog.OpStartup)

	if opts.Metrics && cfg.MetricsEnabled {
		b.Metrics = metrics.New()
	}

	b.Brands = cache.NewBrandRegistry(store, cfg.BrandCacheTTL)
	b.Caches = cache.NewManager()
	b.Caches.Register(b.Brands.Cleaner())
	b.Caches.StartCleanup(5 * time.Minute)

	if opts.AMQP && cfg.AsyncExportsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		switch {
		case err != nil && opts.RequireAMQP:
			_ = b.Close()
			return nil, fmt.Errorf("connect AMQP: %w", err)
		case err != nil:
			logger.Warn("Failed to initialize AMQP client, continuing without queued exports", applog.FieldError, err)
		default:
			b.AMQP = client
			b.closers = append(b.closers, client.Close)
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	b.Purchases = services.NewPurchaseService(store, b.Brands, b.Metrics)
	if b.AMQP != nil {
		b.Exports = services.NewExportService(b.AMQP, b.Metrics)
	} else {
		b.Exports = services.NewExportService(nil, b.Metrics)
	}
	return b, nil
}

// NewPublisher builds the Google Sheets publisher, or returns nil when no
// spreadsheet is configured.
func NewPublisher(ctx context.Context, cfg *config.Config) (sheets.ReportPublisher, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	opts, err := gsheet.CredentialOptions(ctx, cfg.GoogleServiceAccountFile, cfg.GoogleServiceAccountJSON)
	if err != nil {
		return nil, err
	}
	pub, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, opts...)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// Close stops the cache sweep and releases connections in reverse order.
func (b *Backend) Close() error {
	if b.Caches != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		b.Caches.Stop(ctx)
		cancel()
		b.Caches = nil
	}

	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
