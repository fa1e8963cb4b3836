package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spendlens/internal/backend"
	"spendlens/internal/cli"
	"spendlens/internal/ingest"
	"spendlens/internal/log"
	"spendlens/internal/services"
)

// maxParallelReads bounds how many archives are read from disk at once.
const maxParallelReads = 4

func summarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [archives...]",
		Short: "Summarize zipped statements without starting the server",
		Long: `Read one or more zipped statement exports, merge them in argument order
and print the resulting summary.

Examples:
  spendlens summarize ~/Downloads/jan.zip ~/Downloads/feb.zip
  spendlens summarize --format yaml statement.zip
  spendlens summarize --sample --export`,
		RunE: runSummarize,
	}
	cmd.Flags().StringP("format", "f", cli.FormatText, "output format (text, json, yaml)")
	cmd.Flags().Bool("sample", false, "merge the built-in sample statement first")
	cmd.Flags().Bool("dedupe", false, "drop rows already present in the collection")
	cmd.Flags().Bool("export", false, "export the summary to Google Sheets when configured")
	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	sample, _ := cmd.Flags().GetBool("sample")
	dedupe, _ := cmd.Flags().GetBool("dedupe")
	export, _ := cmd.Flags().GetBool("export")

	if len(args) == 0 && !sample {
		return errors.New("no archives given; pass at least one .zip or --sample")
	}
	for _, name := range args {
		if err := ingest.CheckFilename(filepath.Base(name)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	backendCfg.Type = backend.MemoryBackend
	backendCfg.SeedSample = sample
	backendCfg.Dedupe = backendCfg.Dedupe || dedupe
	if !export {
		backendCfg.GoogleSpreadsheetID = ""
	}

	blobs, err := readArchives(cmd, args)
	if err != nil {
		return err
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()
	svc := result.Statements

	for i, blob := range blobs {
		res, err := svc.IngestArchive(ctx, services.SourceCLI, blob)
		if err != nil {
			return fmt.Errorf("%s: %w", args[i], err)
		}
		logger.Debug("Archive merged",
			log.FieldFilename, args[i],
			log.FieldEntry, res.Entry,
			log.FieldRows, res.Merge.Added,
			log.FieldDropped, res.Merge.Dropped)
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	if err := cli.WriteSummary(cmd.OutOrStdout(), format, summary, time.Now()); err != nil {
		return err
	}

	if export {
		ref, err := svc.Export(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Summary exported to %s.\n", ref)
	}
	return nil
}

// readArchives loads every file concurrently and returns the contents in
// argument order.
func readArchives(cmd *cobra.Command, paths []string) ([][]byte, error) {
	blobs := make([][]byte, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxParallelReads)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			blobs[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blobs, nil
}
