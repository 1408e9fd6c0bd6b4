// Package cmd implements the wfctl command line client.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rflorenc/workflow-transfer-workbench/internal/config"
	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
)

var (
	cfgFile    string
	serviceURL string
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "wfctl",
	Short: "Export and import workflows between workflow service instances",
	Long: `wfctl talks to the Remote Workflow Service directly. It lists
workflows, exports them one by one or as a zip archive, imports workflow
documents into a target instance and confirms imports that the target
holds for review.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, same format as the workbench)")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", "", "workflow service base URL (overrides the config file)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
}

// loadClient reads the config and builds a service client.
func loadClient() (*config.Config, *remote.Client, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serviceURL != "" {
		cfg.Service.BaseURL = serviceURL
	}
	return cfg, remote.NewClient(cfg.Service), nil
}

// loadTargets fetches the target instances into a store.
func loadTargets(ctx context.Context, client *remote.Client) (*models.TargetStore, error) {
	list, err := client.ListTargetInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load target instances: %s", remote.ErrorMessage(err))
	}
	store := models.NewTargetStore()
	store.Replace(list)
	return store, nil
}

// resolveTarget picks the instance named by query, or the default one.
func resolveTarget(store *models.TargetStore, query string) (*models.TargetInstance, error) {
	ti := store.Resolve(query)
	if ti == nil {
		if query == "" {
			return nil, fmt.Errorf("no default target instance; pass --target")
		}
		return nil, fmt.Errorf("target instance %q not found or ambiguous", query)
	}
	return ti, nil
}

func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stdout() io.Writer { return rootCmd.OutOrStdout() }

func stderr() io.Writer { return rootCmd.ErrOrStderr() }
