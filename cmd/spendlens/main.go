package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spendlens/internal/cli"
	"spendlens/internal/config"
	"spendlens/internal/log"
)

var (
	version = "dev"
	// logger is installed by the root command before any subcommand runs.
	logger *log.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spendlens",
		Short: "Bank statement insights dashboard",
		Long: `spendlens ingests zipped bank statement exports, normalizes the
transactions and serves spending insights over a web dashboard.

Run without a subcommand to start the dashboard server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			env := config.Load()
			if level == "" {
				level = env.LogLevel
			}
			if format == "" {
				format = env.LogFormat
			}
			logger = cli.SetupLogger(cmd.ErrOrStderr(), level, format)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args)
		},
	}

	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")
	root.PersistentFlags().String("log-format", "", "log format (text, json); defaults to LOG_FORMAT")

	root.AddCommand(serveCmd())
	root.AddCommand(summarizeCmd())
	root.AddCommand(sampleCmd())
	root.AddCommand(workerCmd())
	return root
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
