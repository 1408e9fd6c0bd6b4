package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rflorenc/workflow-transfer-workbench/internal/dsl"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
)

var validateRemote bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a workflow document",
	Long: `Checks the structure of a workflow document locally. With --remote the
workflow service validates it instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		if validateRemote {
			_, client, err := loadClient()
			if err != nil {
				return err
			}
			res, err := client.ValidateFile(context.Background(), string(data))
			if err != nil {
				return fmt.Errorf("validation failed: %s", remote.ErrorMessage(err))
			}
			if jsonOut {
				return outputJSON(stdout(), res)
			}
			if !res.Valid {
				return fmt.Errorf("%s: %s", args[0], res.Error)
			}
			if res.AppInfo != nil {
				fmt.Fprintf(stdout(), "OK: %s: %s (%s)\n", args[0], res.AppInfo.Name, res.AppInfo.Mode)
			} else {
				fmt.Fprintf(stdout(), "OK: %s\n", args[0])
			}
			return nil
		}

		doc, err := dsl.Parse(string(data))
		if jsonOut {
			out := map[string]interface{}{"valid": err == nil}
			if err != nil {
				out["error"] = err.Error()
			} else {
				out["app_info"] = doc.App
				out["version"] = doc.Version
			}
			if encErr := outputJSON(stdout(), out); encErr != nil {
				return encErr
			}
			return err
		}
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintf(stdout(), "OK: %s: %s (%s, version %s)\n", args[0], doc.App.Name, doc.App.Mode, doc.Version)
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateRemote, "remote", false, "validate with the workflow service")
	rootCmd.AddCommand(validateCmd)
}
