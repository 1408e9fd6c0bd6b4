package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rflorenc/workflow-transfer-workbench/internal/probe"
)

var targetsTest bool

var targetsCmd = &cobra.Command{
	Use:   "targets [instance...]",
	Short: "List target instances",
	Long: `Lists the target instances known to the workflow service. With --test
every listed instance (or only the named ones) is probed concurrently.`,
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

		if targetsTest {
			ids := store.IDs()
			if len(args) > 0 {
				ids = ids[:0]
				for _, q := range args {
					ti, err := resolveTarget(store, q)
					if err != nil {
						return err
					}
					ids = append(ids, ti.ID)
				}
			}
			probe.New(client, cfg.Probe.Timeout).
				WithRecorder(store).
				ProbeAll(ctx, ids)
		}

		list := store.List()
		if jsonOut {
			return outputJSON(stdout(), list)
		}
		if len(list) == 0 {
			fmt.Fprintln(stdout(), "No target instances configured")
			return nil
		}

		w := tabwriter.NewWriter(stdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tURL\tAUTH\tDEFAULT\tSTATUS")
		for _, ti := range list {
			def := ""
			if ti.IsDefault {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", ti.ID, ti.Name, ti.BaseURL, ti.AuthMethod, def, ti.Status)
		}
		w.Flush()
		return nil
	},
}

func init() {
	targetsCmd.Flags().BoolVar(&targetsTest, "test", false, "probe connectivity of the instances")
	rootCmd.AddCommand(targetsCmd)
}
