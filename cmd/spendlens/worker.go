package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"spendlens/internal/amqp"
	"spendlens/internal/cache"
	"spendlens/internal/cli"
	"spendlens/internal/log"
	gsheet "spendlens/internal/sheets/google"
	"spendlens/internal/worker"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Log statement events from the broker to Google Sheets",
		Long: `Consume the statement events the server publishes and append one row per
ingestion to the ingestion log sheet. Requires AMQP_URL and
GOOGLE_SPREADSHEET_ID.`,
		Args: cobra.NoArgs,
		RunE: runWorker,
	}
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if !cfg.AMQPEnabled() {
		return errors.New("worker requires AMQP_URL")
	}
	if !cfg.SheetsEnabled() {
		return errors.New("worker requires GOOGLE_SPREADSHEET_ID")
	}
	if cfg.AMQPQueue == "" {
		return errors.New("worker requires AMQP_QUEUE")
	}

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		LogSheetName:       cfg.GoogleLogSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		return err
	}
	defer broker.Close()

	w := worker.NewIngestLogWorker(sheetsClient, logger)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(w.Seen())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	logger.Info("Starting spendlens worker",
		"queue", cfg.AMQPQueue,
		"exchange", cfg.AMQPExchange,
		"routing_key", cfg.AMQPRoutingKey,
		"log_sheet", cfg.GoogleLogSheetName)

	if err := w.Run(ctx, broker, cfg.AMQPQueue); err != nil {
		return err
	}
	handled, skipped := w.Stats()
	logger.Info("Worker stopped", "handled", handled, "skipped", skipped)
	return nil
}
