package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spendlens/internal/backend"
	"spendlens/internal/cache"
	"spendlens/internal/cli"
	apphttp "spendlens/internal/http"
	"spendlens/internal/log"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(result.Statements.Views())
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	srv, err := apphttp.NewServer(":"+cfg.Port, result.Statements, apphttp.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendlens server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp", cfg.AMQPEnabled(),
			"sheets_export", cfg.SheetsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
