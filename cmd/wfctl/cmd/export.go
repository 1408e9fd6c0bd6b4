package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/transfer"
)

var (
	exportIncludeSecret bool
	exportFormat        string
	exportOutput        string
)

var exportCmd = &cobra.Command{
	Use:   "export <app-id>...",
	Short: "Export workflows",
	Long: `Exports the given workflows in one batch request. The bundle format
writes a single zip archive; per-item writes one YAML file per workflow.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := models.ParseExportFormat(exportFormat)
		if err != nil {
			return err
		}
		cfg, client, err := loadClient()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(exportOutput, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		coord := transfer.NewCoordinator(client, nil, cfg.Transfer.Concurrency)
		res, err := coord.ExportBatch(context.Background(), transfer.ExportRequest{
			IDs:            args,
			IncludeSecrets: exportIncludeSecret,
			Format:         format,
		}, nil)
		if err != nil {
			return err
		}

		written, err := writeExport(exportOutput, res)
		if err != nil {
			return err
		}

		if jsonOut {
			return outputJSON(stdout(), res)
		}
		for _, it := range res.Items {
			if it.Success {
				fmt.Fprintf(stdout(), "OK: %s (%s)\n", it.ID, it.Name)
			} else {
				fmt.Fprintf(stdout(), "FAIL: %s: %s\n", it.ID, it.Error)
			}
		}
		if res.BundleError != "" {
			fmt.Fprintf(stderr(), "WARN: %s\n", res.BundleError)
		}
		for _, p := range written {
			fmt.Fprintf(stdout(), "Wrote %s\n", p)
		}
		fmt.Fprintf(stdout(), "%d succeeded, %d failed (total %d)\n", res.SuccessCount, res.FailedCount, res.TotalCount)
		if res.FailedCount > 0 {
			return fmt.Errorf("%d of %d exports failed", res.FailedCount, res.TotalCount)
		}
		return nil
	},
}

// writeExport stores the artifacts of res under dir and returns their paths.
func writeExport(dir string, res *models.ExportBatchResult) ([]string, error) {
	var written []string
	if res.Bundle != nil {
		p := filepath.Join(dir, res.Bundle.Filename)
		if err := os.WriteFile(p, res.Bundle.Data, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", p, err)
		}
		return append(written, p), nil
	}
	if res.Format == models.FormatBundle {
		return written, nil
	}
	for _, it := range res.Items {
		if !it.Success {
			continue
		}
		p := filepath.Join(dir, filepath.Base(it.Filename))
		if err := os.WriteFile(p, []byte(it.Content), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", p, err)
		}
		written = append(written, p)
	}
	return written, nil
}

func init() {
	exportCmd.Flags().BoolVar(&exportIncludeSecret, "include-secret", false, "include secret environment variables")
	exportCmd.Flags().StringVar(&exportFormat, "format", "bundle", "bundle (zip archive) or per-item (one file each)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", ".", "output directory")
	rootCmd.AddCommand(exportCmd)
}
