package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/grachmannico95/einvoice-sync/internal/config"
	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/internal/eventbus"
	"github.com/grachmannico95/einvoice-sync/internal/handler"
	"github.com/grachmannico95/einvoice-sync/internal/scheduler"
	"github.com/grachmannico95/einvoice-sync/internal/server"
	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/internal/storage"
	"github.com/grachmannico95/einvoice-sync/internal/taxbureau"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	log.Info(ctx, "Starting application")

	repo, closeRepo := openRepository(ctx, cfg, log)
	defer closeRepo()

	eventBusCfg := &eventbus.Config{
		ChannelBuffer:  cfg.EventBus.ChannelBufferSize,
		MaxRetries:     cfg.Worker.MaxRetries,
		RetryBaseDelay: cfg.EventBus.RetryBaseDelay,
	}
	bus := eventbus.New(log, eventBusCfg)

	historyConsumer := eventbus.NewSyncHistoryConsumer(repo, log, cfg.Worker.PoolSize)
	for _, eventType := range []eventbus.EventType{eventbus.EventTypeSyncCompleted, eventbus.EventTypeSyncFailed} {
		if err := bus.Subscribe(eventType, historyConsumer); err != nil {
			log.Fatal(ctx, "Failed to subscribe consumer",
				"event_type", eventType,
				"error", err,
			)
		}
	}

	if err := bus.Start(ctx); err != nil {
		log.Fatal(ctx, "Failed to start event bus",
			"error", err,
		)
	}
	log.Info(ctx, "Event bus initialized",
		"worker_count", cfg.Worker.PoolSize,
	)

	listTaxRate := decimal.NewFromFloat(cfg.TaxBureau.ListTaxRate)
	detailTaxRate := decimal.NewFromFloat(cfg.TaxBureau.DetailTaxRate)
	client := taxbureau.NewClient(taxbureau.Config{
		BaseURL:        cfg.TaxBureau.BaseURL,
		Version:        cfg.TaxBureau.Version,
		Timeout:        cfg.TaxBureau.Timeout,
		ListTaxRate:    &listTaxRate,
		DetailTaxRate:  &detailTaxRate,
		MaxRetries:     cfg.TaxBureau.MaxRetries,
		RetryBaseDelay: cfg.TaxBureau.RetryBaseDelay,
		ProbeMonths:    cfg.TaxBureau.ProbeMonths,
	}, log)
	if cfg.TaxBureau.APIKey == "" {
		log.Warn(ctx, "EINVOICE_API_KEY is not set, tax bureau calls will fail")
	}
	client.SetAPIKey(cfg.TaxBureau.APIKey)

	categorizer, err := service.LoadCategorizer(cfg.Categories.RulesPath)
	if err != nil {
		log.Fatal(ctx, "Failed to load category rules",
			"path", cfg.Categories.RulesPath,
			"error", err,
		)
	}

	users := service.NewUserResolver(repo, cfg.User.DefaultID, log)
	carrierService := service.NewCarrierService(repo, users, log)
	syncService := service.NewInvoiceSyncService(client, carrierService, repo, categorizer, log,
		service.WithPublisher(bus),
	)
	importer := service.NewInvoiceImporter(carrierService, syncService, cfg.TaxBureau.DetailTaxRate, log)
	lookupService := service.NewInvoiceLookupService(client, repo, categorizer, log)
	ledgerService := service.NewLedgerService(repo, repo, carrierService, users, log)
	log.Info(ctx, "Services initialized")

	autoSync := scheduler.New(syncService, log, scheduler.Config{
		Interval:         cfg.Scheduler.Interval,
		FailureThreshold: cfg.Scheduler.FailureThreshold,
		Cooldown:         cfg.Scheduler.Cooldown,
	})
	if cfg.Scheduler.Enabled {
		autoSync.EnableAutoSync(ctx, cfg.Scheduler.Interval)
	}

	srv := server.New(cfg, log, server.Handlers{
		Health:      handler.NewHealthHandler(syncService),
		Carrier:     handler.NewCarrierHandler(carrierService, log),
		Sync:        handler.NewSyncHandler(syncService, ledgerService, autoSync, log),
		Transaction: handler.NewTransactionHandler(ledgerService, log),
		Invoice:     handler.NewInvoiceHandler(lookupService, importer, cfg.Server.MaxUploadSize, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	log.Info(ctx, "Application started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	// stop accepting requests, then stop scheduled syncs, then drain history events
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
	}

	autoSync.DisableAutoSync()

	if err := bus.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Event bus shutdown error",
			"error", err,
		)
	}

	log.Info(ctx, "Application stopped gracefully")
}

func openRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.Repository, func()) {
	switch cfg.Storage.Driver {
	case config.StorageDriverSQLite:
		store, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatal(ctx, "Failed to open SQLite store",
				"path", cfg.Storage.SQLitePath,
				"error", err,
			)
		}
		log.Info(ctx, "Repository initialized",
			"driver", cfg.Storage.Driver,
			"path", store.Path(),
		)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error(ctx, "Failed to close SQLite store",
					"error", err,
				)
			}
		}
	default:
		if cfg.Storage.Driver != config.StorageDriverMemory {
			log.Warn(ctx, "Unknown storage driver, using memory",
				"driver", cfg.Storage.Driver,
			)
		}
		log.Info(ctx, "Repository initialized",
			"driver", config.StorageDriverMemory,
		)
		return storage.NewMemoryStore(), func() {}
	}
}
