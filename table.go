package finstmt

import (
	"strconv"
	"strings"
)

// Row is a single table row as found in the markup.
type Row struct {
	// Position is the row's index among all rows of its table,
	// in document order.
	Position int

	// Cells holds the trimmed text of every cell, header and data cells alike.
	Cells []string
}

// Fragment is one candidate table element plus its contextual markup.
// Optional markup is exposed through (value, ok) queries so callers can
// branch on what is present without probing the underlying tree.
type Fragment interface {
	// Caption returns the table's own caption text.
	Caption() (string, bool)

	// InnerHeading returns the text of the first h1-h5 element inside the
	// table that has non-empty text.
	InnerHeading() (string, bool)

	// PrecedingHeading returns the text of the nearest h1-h5 element that
	// precedes the table in document order.
	PrecedingHeading() (string, bool)

	// HeaderSection returns the rows of an explicit header section.
	HeaderSection() ([]Row, bool)

	// BodySection returns the rows of the explicit body sections.
	BodySection() ([]Row, bool)

	// Rows returns every row of the table in document order.
	Rows() []Row
}

// Table is a normalized, rectangular dataset. Every row holds exactly
// len(Columns) cells. A Table is not modified after construction.
type Table struct {
	// Columns holds the header labels, or Column_0..Column_n when the
	// source had no header row.
	Columns []string `json:"columns"`

	// HasHeader reports whether Columns came from the markup.
	HasHeader bool `json:"hasHeader"`

	Rows [][]string `json:"rows"`
}

// NewTable builds a rectangular table. With headers, rows are padded with
// empty strings or truncated to the header length. Without headers, rows are
// padded to the longest row and columns are named positionally. Input slices
// are copied.
func NewTable(headers []string, rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{}
	}

	width := len(headers)
	hasHeader := width > 0
	if !hasHeader {
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}
		if width == 0 {
			return &Table{}
		}
	}

	t := &Table{
		Columns:   make([]string, width),
		HasHeader: hasHeader,
		Rows:      make([][]string, 0, len(rows)),
	}
	if hasHeader {
		copy(t.Columns, headers)
	} else {
		for i := range t.Columns {
			t.Columns[i] = "Column_" + strconv.Itoa(i)
		}
	}

	for _, row := range rows {
		cells := make([]string, width)
		copy(cells, row)
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Empty reports whether the table holds no data.
func (t *Table) Empty() bool {
	return t.NumRows() == 0 || t.NumColumns() == 0
}

// Cells returns the number of cells in the table.
func (t *Table) Cells() int {
	return t.NumRows() * t.NumColumns()
}

// Text flattens the column labels and every cell into one lower-cased
// string, row by row.
func (t *Table) Text() string {
	if t.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, " "))
	for _, row := range t.Rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, " "))
	}
	return strings.ToLower(b.String())
}

// Normalize converts a fragment into a rectangular table.
//
// The header row is the first row of an explicit header section, or the
// first row of the table when there is none. Body rows come from the explicit
// body sections when present, otherwise from every row; the row consumed as
// header is never repeated as data. Rows without cells are dropped.
// Malformed input degrades to a smaller or empty table.
func Normalize(f Fragment) *Table {
	if f == nil {
		return &Table{}
	}

	header, ok := headerRow(f)
	var headers []string
	if ok {
		headers = header.Cells
	}

	body, ok := f.BodySection()
	if !ok {
		body = f.Rows()
	}

	rows := make([][]string, 0, len(body))
	for _, row := range body {
		if len(headers) > 0 && row.Position == header.Position {
			continue
		}
		if len(row.Cells) == 0 {
			continue
		}
		rows = append(rows, row.Cells)
	}

	return NewTable(headers, rows)
}

// headerRow returns the row holding column labels.
// An explicit header section without rows means the table has no header row.
// Without a header section the first row is the header, even when the rows
// sit in a body section: HTML parsers insert tbody around bare rows, so an
// authored tbody cannot be told apart from an implied one, and keeping the
// first row as data too would repeat the labels in every such table.
func headerRow(f Fragment) (Row, bool) {
	if head, ok := f.HeaderSection(); ok {
		if len(head) == 0 {
			return Row{}, false
		}
		return head[0], true
	}

	rows := f.Rows()
	if len(rows) == 0 {
		return Row{}, false
	}
	return rows[0], true
}
