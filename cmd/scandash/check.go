package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avety/scandash/internal/api"
	"github.com/avety/scandash/internal/config"
)

// newCheckCmd builds the connectivity smoke-test subcommand. It walks the
// read endpoints without starting the TUI, which is handy when wiring up a
// new server or token.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify connectivity to the scan server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			client := api.New(cfg.ServerURL,
				api.WithToken(cfg.Token),
				api.WithTimeout(cfg.RequestTimeout),
			)
			ctx := context.Background()

			groups, err := client.ListGroups(ctx)
			if err != nil {
				return fmt.Errorf("list groups: %w", err)
			}
			fmt.Printf("Server %s OK: %d groups\n", cfg.ServerURL, len(groups))

			for _, g := range groups {
				fmt.Printf("  %s (%d folders, %d files)\n", g.Name, g.FolderCount, g.FileCount)
			}

			if len(groups) == 0 {
				return nil
			}

			detail, err := client.GroupDetails(ctx, groups[0].ID)
			if err != nil {
				return fmt.Errorf("group %s details: %w", groups[0].ID, err)
			}
			fmt.Printf("\n%s: %d files, %d issues (%d fixed)\n",
				detail.Name, detail.FileCount, detail.TotalIssues, detail.IssuesFixed)
			return nil
		},
	}
}
