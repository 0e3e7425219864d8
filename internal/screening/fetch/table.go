// Package fetch downloads reference lists and parses them into tables.
package fetch

import "strconv"

// Table is a parsed delimiter-separated file. Rows may be shorter than the
// header; Value handles the gap.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a table and indexes its header.
func NewTable(header []string, rows [][]string) Table {
	t := Table{Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

// Column returns the position of a named column.
func (t Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Value returns row[col], or "" when the row is too short or col < 0.
func Value(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// positionalHeader names columns "0".."n-1" for files without a header row.
func positionalHeader(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = strconv.Itoa(i)
	}
	return h
}
