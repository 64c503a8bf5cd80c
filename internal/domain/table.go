package domain

import "fmt"

// Table is an ordered, column-named result set. Every analysis operation
// returns one (directly or via a typed view), so consumers such as the
// export and chart layers never need access to the query engine.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NumRows returns the number of data rows.
func (t Table) NumRows() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or an error if the
// table has no such column.
func (t Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("table has no column %q", name)
}

// Append adds a row. The caller is responsible for matching the column count.
func (t *Table) Append(row ...any) {
	t.Rows = append(t.Rows, row)
}
