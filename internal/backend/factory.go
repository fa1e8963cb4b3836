package backend

import (
	"context"
	"errors"
	"fmt"

	"spendlens/internal/amqp"
	"spendlens/internal/ingest"
	"spendlens/internal/log"
	"spendlens/internal/services"
	gsheet "spendlens/internal/sheets/google"
	"spendlens/internal/storage"
	"spendlens/internal/store"
	"spendlens/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the store, connects the optional publisher and
// exporter, and builds the statement service on top. Resources opened
// before a failure are released before returning.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}

	st, closeStore, err := f.createStore(config)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		cleanups = append(cleanups, closeStore)
	}

	opts := services.Options{
		Logger:       f.logger,
		ViewCacheTTL: config.ViewCacheTTL,
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ingestion events",
				log.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"routing_key", config.AMQPRoutingKey)
			opts.Publisher = client
			cleanups = append(cleanups, client.Close)
		}
	}

	if config.GoogleSpreadsheetID != "" {
		exporter, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			SheetName:          config.GoogleSheetName,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			_ = cleanup()
			return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
		}
		f.logger.Info("Initialized Google Sheets exporter", "sheet", config.GoogleSheetName)
		opts.Exporter = exporter
	}

	svc := services.NewStatementService(st, ingest.NewPipeline(nil), opts)

	if config.SeedSample {
		if _, err := svc.LoadSample(ctx); err != nil {
			_ = cleanup()
			return nil, fmt.Errorf("failed to seed sample statement: %w", err)
		}
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"dedupe", config.Dedupe,
		"amqp_enabled", opts.Publisher != nil,
		"export_enabled", opts.Exporter != nil)

	return &BackendResult{
		Store:      st,
		Statements: svc,
		Cleanup:    cleanup,
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (store.TransactionStore, CleanupFunc, error) {
	opts := store.Options{Dedupe: config.Dedupe}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDSN, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "dsn", config.SQLiteDSN)
		return repo, repo.Close, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return memory.New(opts), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
