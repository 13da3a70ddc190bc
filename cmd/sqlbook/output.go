package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/willibrandon/sqlbook/internal/db/models"
)

var (
	successFormat = color.New(color.FgGreen).SprintFunc()
	errorFormat   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	mutedFormat   = color.New(color.FgHiBlack).SprintFunc()
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}

func printSuccess(msg string) {
	fmt.Println(successFormat("✓"), msg)
}

// printError writes err to stderr with connection guidance when it applies.
func printError(err error) {
	fmt.Fprintln(os.Stderr, errorFormat("Error:"), formatError(err))
}

func printConnections(infos []models.ConnectionInfo) error {
	if jsonOutput {
		return printJSON(infos)
	}
	if len(infos) == 0 {
		fmt.Println(mutedFormat("No saved connections. Add one with: sqlbook conn add"))
		return nil
	}

	data := pterm.TableData{{"ID", "NAME", "HOST"}}
	for _, info := range infos {
		data = append(data, []string{strconv.Itoa(info.ID), info.Name, info.Host})
	}
	return renderTable(data)
}

// printTable renders a query result followed by a row count footer.
func printTable(table *models.Table, elapsed time.Duration) error {
	data := tableData(table)
	if len(data) > 1 {
		if err := renderTable(data); err != nil {
			return err
		}
	}

	rows := table.RowCount()
	noun := "rows"
	if rows == 1 {
		noun = "row"
	}
	fmt.Println(mutedFormat(fmt.Sprintf("%s %s in %s", humanize.Comma(int64(rows)), noun, elapsed.Round(time.Millisecond))))
	return nil
}

// tableData converts a result into pterm rows with a header. Rows are
// padded to a common width since message rows carry a single value.
func tableData(table *models.Table) pterm.TableData {
	width := len(table.Columns)
	for _, row := range table.Rows {
		width = max(width, len(row.Values))
	}
	if width == 0 {
		return pterm.TableData{}
	}

	header := make([]string, width)
	for i := range header {
		if i < len(table.Columns) {
			header[i] = table.Columns[i].Name
		}
	}
	if len(table.Columns) == 0 {
		header[0] = "result"
	}

	data := pterm.TableData{header}
	for _, row := range table.Rows {
		cells := make([]string, width)
		copy(cells, row.Values)
		data = append(data, cells)
	}
	return data
}

func printHistory(entries []models.HistoryEntry) error {
	if len(entries) == 0 {
		fmt.Println(mutedFormat("No queries recorded for this connection."))
		return nil
	}

	data := pterm.TableData{{"WHEN", "DURATION", "ROWS", "STATUS", "QUERY"}}
	for _, e := range entries {
		status := successFormat("ok")
		if !e.Succeeded() {
			status = errorFormat("error")
		}
		data = append(data, []string{
			humanize.Time(e.ExecutedAt),
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
			humanize.Comma(e.RowCount),
			status,
			summarizeSQL(e.SQL, 60),
		})
	}
	return renderTable(data)
}

func renderTable(data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("error rendering table: %w", err)
	}
	fmt.Println(out)
	return nil
}

// summarizeSQL collapses whitespace and truncates to n runes.
func summarizeSQL(sql string, n int) string {
	s := strings.Join(strings.Fields(sql), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
