package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/sqlbook/internal/ipc"
)

// newQueryCmd creates the query subcommand
func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <id> <sql>",
		Short: "Run SQL on a saved connection",
		Long: `Run SQL on the connection at <id>. Pass "-" as <sql> to read it from stdin.

SELECT statements without a LIMIT clause are limited to manager.row_limit
rows (10 by default).`,
		Example: `  sqlbook query 0 "SELECT * FROM users"
  sqlbook query 1 - < report.sql`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			sql := strings.Join(args[1:], " ")
			if sql == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				sql = string(data)
			}
			if strings.TrimSpace(sql) == "" {
				return fmt.Errorf("empty query")
			}

			return withClient(cmd.Context(), func(ctx context.Context, c *ipc.Client) error {
				start := time.Now()
				table, err := c.Query(ctx, id, sql)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(table)
				}
				return printTable(table, time.Since(start))
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}
