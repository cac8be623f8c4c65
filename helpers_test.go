package finstmt_test

import (
	"github.com/fwojciec/finstmt"
	"github.com/fwojciec/finstmt/mock"
)

// newRows numbers cell slices as rows in document order.
func newRows(cells ...[]string) []finstmt.Row {
	rows := make([]finstmt.Row, len(cells))
	for i, c := range cells {
		rows[i] = finstmt.Row{Position: i, Cells: c}
	}
	return rows
}

// newFragment returns a fragment with the given rows and no sections,
// caption or headings. Tests override individual functions as needed.
func newFragment(rows []finstmt.Row) *mock.Fragment {
	none := func() (string, bool) { return "", false }
	noSection := func() ([]finstmt.Row, bool) { return nil, false }
	return &mock.Fragment{
		CaptionFn:          none,
		InnerHeadingFn:     none,
		PrecedingHeadingFn: none,
		HeaderSectionFn:    noSection,
		BodySectionFn:      noSection,
		RowsFn:             func() []finstmt.Row { return rows },
	}
}

// section returns a section query that reports rows as present.
func section(rows []finstmt.Row) func() ([]finstmt.Row, bool) {
	return func() ([]finstmt.Row, bool) { return rows, true }
}

// text returns a text query that reports s as present.
func text(s string) func() (string, bool) {
	return func() (string, bool) { return s, true }
}

// grid returns n rows of width cells each.
func grid(n, width int, fill string) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, width)
		for j := range rows[i] {
			rows[i][j] = fill
		}
	}
	return rows
}
