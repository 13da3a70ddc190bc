package models

// Table is the uniform result of a query. Every cell is pre-rendered.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Column describes a result column.
type Column struct {
	Name string `json:"name"`
}

// Row holds the rendered values of a single result row.
type Row struct {
	Values []string `json:"values"`
}

// NewMessageRow returns a single-cell row used for synthetic results such
// as command acknowledgments.
func NewMessageRow(msg string) Row {
	return Row{Values: []string{msg}}
}

// RowCount returns the number of rows in the table.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
