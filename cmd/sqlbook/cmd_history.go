package main

import (
	"context"
	"github.com/spf13/cobra"

	"github.com/willibrandon/sqlbook/internal/ipc"
)

// newHistoryCmd creates the history subcommand
func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show recent queries for a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *ipc.Client) error {
				entries, err := c.History(ctx, id, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(entries)
				}
				return printHistory(entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", ipc.DefaultHistoryLimit, "number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}
