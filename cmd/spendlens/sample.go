package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spendlens/internal/ingest"
)

func sampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write the built-in sample statement as a zip archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			blob, err := ingest.SampleArchive()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, blob, 0o644); err != nil {
				return fmt.Errorf("write sample archive: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(blob))
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "sample.zip", "destination file")
	return cmd
}
