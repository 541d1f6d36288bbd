package assessment

import (
	"math"
	"strconv"
	"strings"
)

// Table is an immutable in-memory view of a student sheet. Rows are students,
// columns are identity fields and assessment fields. All cells are kept as
// the text read from the workbook; numeric interpretation happens on access.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable builds a table from a header and its data rows. Rows shorter than
// the header are padded with empty cells and longer rows are truncated.
// When a header name repeats, lookups by name resolve to its first position.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, len(rows)),
	}
	for i, c := range t.columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	for i, r := range rows {
		row := make([]string, len(t.columns))
		copy(row, r)
		t.rows[i] = row
	}
	return t
}

// Columns returns a copy of the header in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the raw text of a cell. The bool is false when the row or the
// column does not exist.
func (t *Table) Cell(row int, column string) (string, bool) {
	if row < 0 || row >= len(t.rows) {
		return "", false
	}
	i, ok := t.index[column]
	if !ok {
		return "", false
	}
	return t.rows[row][i], true
}

// Value returns the trimmed text of a cell, or "" when absent.
func (t *Table) Value(row int, column string) string {
	v, _ := t.Cell(row, column)
	return strings.TrimSpace(v)
}

// Number interprets a cell as a finite float. Blank, non-numeric, NaN and
// infinite cells report false.
func (t *Table) Number(row int, column string) (float64, bool) {
	v, ok := t.Cell(row, column)
	if !ok {
		return 0, false
	}
	return ParseNumber(v)
}

// Row returns a copy of a data row in column order.
func (t *Table) Row(row int) []string {
	if row < 0 || row >= len(t.rows) {
		return nil
	}
	return append([]string(nil), t.rows[row]...)
}

// Records returns the header followed by every data row, suitable for CSV
// export.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for i := range t.rows {
		out = append(out, t.Row(i))
	}
	return out
}

// WithColumn returns a new table with the named column set to values. An
// existing column of the same name is overwritten in place; otherwise the
// column is appended. values is indexed by row; missing entries are blank.
func (t *Table) WithColumn(name string, values []string) *Table {
	cols := t.Columns()
	pos, exists := t.index[name]
	if !exists {
		cols = append(cols, name)
		pos = len(cols) - 1
	}
	rows := make([][]string, len(t.rows))
	for i := range t.rows {
		row := make([]string, len(cols))
		copy(row, t.rows[i])
		if i < len(values) {
			row[pos] = values[i]
		} else {
			row[pos] = ""
		}
		rows[i] = row
	}
	return NewTable(cols, rows)
}

// Select returns a new table restricted to the named columns that exist, in
// the order given.
func (t *Table) Select(columns ...string) *Table {
	keep := make([]string, 0, len(columns))
	for _, c := range columns {
		if t.HasColumn(c) {
			keep = append(keep, c)
		}
	}
	rows := make([][]string, len(t.rows))
	for i := range t.rows {
		row := make([]string, len(keep))
		for j, c := range keep {
			row[j] = t.rows[i][t.index[c]]
		}
		rows[i] = row
	}
	return NewTable(keep, rows)
}

// ParseNumber parses a spreadsheet cell as a finite float.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a derived numeric value with two decimals.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
