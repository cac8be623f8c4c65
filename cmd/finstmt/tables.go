package main

import (
	"fmt"

	"github.com/fwojciec/finstmt"
	"github.com/fwojciec/finstmt/extract"
)

// Run executes the tables command.
func (c *TablesCmd) Run(deps *Dependencies) error {
	extractor := &extract.Extractor{
		Source: deps.Source,
		Parser: deps.Parser,
	}

	var matched int
	progress := func(event extract.ProgressEvent) {
		switch event.Type {
		case extract.ProgressStarted:
			if event.Total == 0 {
				fmt.Fprintln(deps.Stdout, "No tables found.")
			}
		case extract.ProgressMatched:
			matched++
			fmt.Fprintf(deps.Stdout, "%4d  %s  %s  %s\n", event.Index, event.Identity, shape(event.Table), event.Kind)
		case extract.ProgressUnmatched:
			fmt.Fprintf(deps.Stdout, "%4d  %s  %s  -\n", event.Index, event.Identity, shape(event.Table))
		case extract.ProgressSkipped:
			fmt.Fprintf(deps.Stdout, "%4d  %s  %s  too small\n", event.Index, event.Identity, shape(event.Table))
		case extract.ProgressFailed:
			fmt.Fprintf(deps.Stdout, "%4d  %s  error: %s\n", event.Index, event.Identity, finstmt.ErrorMessage(event.Error))
		}
	}

	result, err := extractor.Extract(deps.Ctx, c.Location, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", finstmt.ErrorMessage(err))
		return err
	}

	if result.Scanned > 0 {
		fmt.Fprintf(deps.Stdout, "\n%d tables, %d classified\n", result.Scanned, matched)
	}
	return nil
}

// shape formats a table's dimensions as rows x columns.
func shape(t *finstmt.Table) string {
	return fmt.Sprintf("%dx%d", t.NumRows(), t.NumColumns())
}
