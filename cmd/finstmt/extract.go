package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fwojciec/finstmt"
	"github.com/fwojciec/finstmt/extract"
	"github.com/fwojciec/finstmt/fs"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	policy, err := finstmt.ParsePolicy(c.Policy)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", finstmt.ErrorMessage(err))
		return err
	}

	extractor := &extract.Extractor{
		Source:      deps.Source,
		Parser:      deps.Parser,
		Store:       deps.Store,
		Policy:      policy,
		Concurrency: c.Concurrency,
	}

	progress := func(event extract.ProgressEvent) {
		switch event.Type {
		case extract.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Found %d tables in the document\n", event.Total)
		case extract.ProgressMatched:
			fmt.Fprintf(deps.Stdout, "FOUND %s: %s\n", kindLabel(event.Kind), event.Identity)
		case extract.ProgressFailed:
			if deps.Logger != nil {
				deps.Logger.Warn("table skipped",
					"index", event.Index,
					"identity", event.Identity,
					"err", event.Error,
				)
			}
		}
	}

	result, err := extractor.Extract(deps.Ctx, c.Location, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", finstmt.ErrorMessage(err))
		return err
	}

	if deps.Store != nil {
		for _, kind := range finstmt.Kinds {
			if _, ok := result.Tables[kind]; ok {
				fmt.Fprintf(deps.Stdout, "Saved: %s\n", filepath.Join(c.Out, fs.FileName(kind)))
			}
		}
	}

	fmt.Fprintf(deps.Stdout, "\nFound %d financial tables:\n", len(result.Tables))
	var missing []string
	for _, s := range result.Summary() {
		if !s.Found {
			missing = append(missing, string(s.Kind))
			continue
		}
		if s.Matches > 1 {
			fmt.Fprintf(deps.Stdout, "- %s (%d candidates)\n", s.Kind, s.Matches)
		} else {
			fmt.Fprintf(deps.Stdout, "- %s\n", s.Kind)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(deps.Stdout, "Not found: %s\n", strings.Join(missing, ", "))
	}
	if len(result.Faults) > 0 {
		fmt.Fprintf(deps.Stdout, "Skipped %d tables with errors\n", len(result.Faults))
	}

	if c.Show && deps.Renderer != nil {
		for _, kind := range finstmt.Kinds {
			table, ok := result.Tables[kind]
			if !ok {
				continue
			}
			md, err := deps.Renderer.Render(table)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", finstmt.ErrorMessage(err))
				return err
			}
			fmt.Fprintf(deps.Stdout, "\n%s:\n%s\n", kindLabel(kind), md)
		}
	}

	return nil
}

// kindLabel returns the upper-case display name of a kind.
func kindLabel(kind finstmt.Kind) string {
	return strings.ToUpper(strings.ReplaceAll(string(kind), "_", " "))
}
