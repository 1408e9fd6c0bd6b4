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
	importTarget  string
	importName    string
	importDryRun  bool
	importOptions models.ImportOptions
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import workflow documents into a target instance",
	Long: `Imports YAML workflow documents into a target instance. Each file is
checked locally first; a broken file fails on its own without stopping the
rest. Imports the target holds for review are confirmed automatically
unless --ignore-errors is set, in which case they are left pending for
'wfctl confirm'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importName != "" && len(args) > 1 {
			return fmt.Errorf("--name can only be used with a single file")
		}
		if importOptions.CreateNewOnConflict && !importOptions.ServerSide {
			return fmt.Errorf("--create-new-on-conflict requires --server-side")
		}
		files, err := readImportFiles(args)
		if err != nil {
			return err
		}
		if importName != "" {
			files[0].Overrides.Name = importName
		}

		if importDryRun {
			pf, err := transfer.PreflightImport(files, func(line string) { fmt.Fprintln(stderr(), line) })
			if err != nil {
				return err
			}
			if jsonOut {
				return outputJSON(stdout(), pf)
			}
			for _, it := range pf.Items {
				if it.Valid {
					fmt.Fprintf(stdout(), "OK: %s: %s (%s)\n", it.Filename, it.Name, it.App.Mode)
				} else {
					fmt.Fprintf(stdout(), "FAIL: %s: %s\n", it.Filename, it.Error)
				}
			}
			fmt.Fprintf(stdout(), "%d of %d files valid\n", pf.ValidCount, pf.TotalCount)
			return nil
		}

		cfg, client, err := loadClient()
		if err != nil {
			return err
		}
		ctx := context.Background()
		store, err := loadTargets(ctx, client)
		if err != nil {
			return err
		}
		target, err := resolveTarget(store, importTarget)
		if err != nil {
			return err
		}

		logger := func(line string) {
			if !jsonOut {
				fmt.Fprintln(stdout(), line)
			}
		}
		logger(fmt.Sprintf("Importing %d files into %s (%s)...", len(files), target.Name, target.ID))

		coord := transfer.NewCoordinator(client, store, cfg.Transfer.Concurrency)
		res, err := coord.ImportBatch(ctx, files, target.ID, importOptions, logger, nil)
		if err != nil {
			return err
		}

		if jsonOut {
			return outputJSON(stdout(), res)
		}
		for _, it := range res.Items {
			if it.Status == models.ImportPending {
				fmt.Fprintf(stdout(), "  pending: wfctl confirm %s --target %s\n", it.ImportID, target.ID)
			}
		}
		if res.FailedCount > 0 && !importOptions.IgnoreErrors {
			return fmt.Errorf("%d of %d imports failed", res.FailedCount, res.TotalCount)
		}
		return nil
	},
}

func readImportFiles(paths []string) ([]models.ImportFile, error) {
	files := make([]models.ImportFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, models.ImportFile{Filename: filepath.Base(p), Content: string(data)})
	}
	return files, nil
}

var confirmTarget string

var confirmCmd = &cobra.Command{
	Use:   "confirm <import-id>",
	Short: "Confirm an import the target holds for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadClient()
		if err != nil {
			return err
		}
		ctx := context.Background()
		store, err := loadTargets(ctx, client)
		if err != nil {
			return err
		}
		target, err := resolveTarget(store, confirmTarget)
		if err != nil {
			return err
		}

		coord := transfer.NewCoordinator(client, store, cfg.Transfer.Concurrency)
		if _, err := coord.Resume(args[0], target.ID); err != nil {
			return err
		}
		draft, err := coord.Confirm(ctx, args[0], target.ID)
		if err != nil {
			return err
		}

		if jsonOut {
			return outputJSON(stdout(), draft)
		}
		switch draft.Status {
		case models.ImportFailed:
			return fmt.Errorf("confirm %s failed: %s", args[0], draft.Error)
		case models.ImportCompletedWithWarnings:
			fmt.Fprintf(stdout(), "WARN: imported as %s\n", draft.ResourceID)
			for _, w := range draft.Warnings {
				fmt.Fprintf(stdout(), "  %s\n", w)
			}
		default:
			fmt.Fprintf(stdout(), "OK: imported as %s\n", draft.ResourceID)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importTarget, "target", "t", "", "target instance id or name (default: the service's default instance)")
	importCmd.Flags().StringVar(&importName, "name", "", "override the workflow name (single file only)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "only check the files locally")
	importCmd.Flags().BoolVar(&importOptions.OverwriteExisting, "overwrite", false, "overwrite existing workflows with the same app id")
	importCmd.Flags().BoolVar(&importOptions.IgnoreErrors, "ignore-errors", false, "report failures as warnings and leave pending imports unconfirmed")
	importCmd.Flags().BoolVar(&importOptions.CreateNewOnConflict, "create-new-on-conflict", false, "create a new workflow when the app id already exists (requires --server-side)")
	importCmd.Flags().BoolVar(&importOptions.ServerSide, "server-side", false, "let the service run the batch in one request")
	rootCmd.AddCommand(importCmd)

	confirmCmd.Flags().StringVarP(&confirmTarget, "target", "t", "", "target instance id or name (default: the service's default instance)")
	rootCmd.AddCommand(confirmCmd)
}
