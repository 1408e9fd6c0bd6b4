package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rflorenc/workflow-transfer-workbench/internal/listing"
)

var (
	listPage     int
	listPageSize int
	listSearch   string
	listRefresh  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows",
	Long:  `Lists one page of workflows, optionally filtered by a search keyword.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadClient()
		if err != nil {
			return err
		}
		cursor := listing.NewCursor(client, cfg.Listing.PageSize)
		win := listing.Window{Page: listPage, PageSize: listPageSize, Search: listSearch}

		ctx := context.Background()
		fetch := cursor.Fetch
		if listRefresh {
			fetch = cursor.Refresh
		}
		win, res, err := fetch(ctx, win)
		if err != nil {
			return err
		}

		if jsonOut {
			return outputJSON(stdout(), res)
		}

		if len(res.Page.Items) == 0 {
			fmt.Fprintln(stdout(), "No workflows found")
			return nil
		}

		w := tabwriter.NewWriter(stdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "APP ID\tNAME\tMODE\tVERSION\tNODES\tSECRETS\tMODIFIED")
		for _, it := range res.Page.Items {
			modified := "-"
			if !it.LastModified.IsZero() {
				modified = it.LastModified.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
				it.ID, it.DisplayName, it.KindTag, it.Version, it.NodeCount, it.HasSecretVariables, modified)
		}
		w.Flush()
		fmt.Fprintf(stdout(), "Page %d/%d (%d workflows, %d per page)\n",
			win.Page, res.Page.TotalPages, res.Page.Total, win.PageSize)
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "workflows per page (default from config)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "filter by keyword")
	listCmd.Flags().BoolVar(&listRefresh, "refresh", false, "invalidate the service cache first (returns page 1)")
	rootCmd.AddCommand(listCmd)
}
