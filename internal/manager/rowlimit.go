package manager

import (
	"fmt"
	"strings"
)

// RowLimitMarker tags the LIMIT clause added by ApplyRowLimit.
const RowLimitMarker = "-- sqlbook"

// ApplyRowLimit bounds an unlimited SELECT to n rows.
//
// The check is textual: statements whose trimmed, upper-cased text starts
// with SELECT and contains no LIMIT anywhere get "LIMIT n -- sqlbook" on
// a new line. A trailing semicolon is moved after the clause. Everything
// else is returned unchanged, so applying it twice is the same as once.
func ApplyRowLimit(sql string, n int) string {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") || strings.Contains(upper, "LIMIT") {
		return sql
	}

	clause := fmt.Sprintf("\nLIMIT %d %s", n, RowLimitMarker)
	if body, ok := strings.CutSuffix(trimmed, ";"); ok {
		return body + clause + "\n;"
	}
	return trimmed + clause
}
