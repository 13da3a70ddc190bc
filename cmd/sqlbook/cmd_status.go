package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/willibrandon/sqlbook/internal/ipc"
)

// newStatusCmd creates the status subcommand
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status and recent warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *ipc.Client) error {
				status, err := c.GetStatus(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(status)
				}
				printHumanStatus(status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}

// printHumanStatus prints the status in human-readable format.
func printHumanStatus(status *ipc.StatusResult) {
	fmt.Printf("sqlbook %s\n", status.Version)
	fmt.Printf("  PID:          %d\n", status.PID)
	fmt.Printf("  Started:      %s\n", humanize.Time(status.StartTime))
	fmt.Printf("  Uptime:       %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	fmt.Printf("  Socket:       %s\n", status.Socket)
	fmt.Printf("  Connections:  %d\n", status.Connections)
	fmt.Printf("  Drivers:      %s\n", strings.Join(status.Drivers, ", "))
	fmt.Printf("  Warnings:     %d\n", status.Warnings)
	fmt.Printf("  Errors:       %d\n", status.Errors)

	if len(status.Queries) > 0 {
		fmt.Println("\nQueries:")
		data := pterm.TableData{{"CONNECTION", "QUERIES", "ERRORS", "AVG", "P95", "MAX", "LAST"}}
		for _, q := range status.Queries {
			data = append(data, []string{
				q.Connection,
				humanize.Comma(q.Queries),
				humanize.Comma(q.Errors),
				formatMs(q.AvgMs),
				formatMs(q.P95Ms),
				formatMs(q.MaxMs),
				humanize.Time(q.LastAt),
			})
		}
		if err := renderTable(data); err != nil {
			fmt.Println(err)
		}
	}

	if len(status.Recent) == 0 {
		return
	}
	fmt.Println("\nRecent:")
	for _, entry := range status.Recent {
		fmt.Printf("  %s\n", entry.Format())
	}
}

// formatMs renders a millisecond value as a rounded duration.
func formatMs(ms float64) string {
	return time.Duration(ms * float64(time.Millisecond)).Round(100 * time.Microsecond).String()
}
