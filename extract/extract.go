// Package extract provides statement extraction orchestration.
// It coordinates opening a filing, parsing its tables, classifying them,
// and storing the statements found.
package extract

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/fwojciec/finstmt"
	"golang.org/x/sync/errgroup"
)

// Extractor extracts financial statements from filings.
type Extractor struct {
	Source finstmt.DocumentSource
	Parser finstmt.DocumentParser

	// Store receives the selected table of every kind found.
	// Nothing is stored when Store is nil.
	Store finstmt.TableStore

	// Policy selects among several tables matching the same kind.
	// Defaults to finstmt.PolicyLast.
	Policy finstmt.Policy

	// Concurrency is the number of tables processed at once.
	// Values below 2 process tables sequentially.
	Concurrency int
}

// ProgressEvent reports progress of an extraction.
type ProgressEvent struct {
	Type     ProgressType
	Index    int
	Total    int
	Identity string
	Kind     finstmt.Kind
	Table    *finstmt.Table
	Error    error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressMatched
	ProgressUnmatched
	ProgressSkipped
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting extraction progress.
type ProgressFunc func(event ProgressEvent)

// outcome holds the result of processing a single table.
type outcome struct {
	index    int
	identity string
	table    *finstmt.Table
	eligible bool
	kind     finstmt.Kind
	matched  bool
	err      error
}

// Extract opens the filing at location, classifies its tables and stores
// the statements found. A missing filing is returned as an error; failures
// on individual tables are recorded as faults in the result.
func (e *Extractor) Extract(ctx context.Context, location string, progress ProgressFunc) (*finstmt.Result, error) {
	if e.Source == nil || e.Parser == nil {
		return nil, finstmt.Errorf(finstmt.EINVALID, "extractor requires a source and a parser")
	}

	rc, err := e.Source.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	fragments, err := e.Parser.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}

	result, err := e.Process(ctx, fragments, progress)
	if err != nil {
		return nil, err
	}

	if err := e.store(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Process normalizes and classifies fragments given in document order.
// It does not store anything.
func (e *Extractor) Process(ctx context.Context, fragments []finstmt.Fragment, progress ProgressFunc) (*finstmt.Result, error) {
	total := len(fragments)
	emit := func(event ProgressEvent) {
		if progress != nil {
			event.Total = total
			progress(event)
		}
	}

	emit(ProgressEvent{Type: ProgressStarted})

	outcomes := make([]outcome, total)
	if e.Concurrency < 2 {
		for i, f := range fragments {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = process(i, f)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.Concurrency)
		for i, f := range fragments {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = process(i, f)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	// Outcomes are reported and collected in document order regardless of
	// how they were computed.
	result := finstmt.NewResult()
	result.Scanned = total
	for _, out := range outcomes {
		event := ProgressEvent{Index: out.index, Identity: out.identity}
		switch {
		case out.err != nil:
			result.Faults = append(result.Faults, &finstmt.Fault{
				Index:    out.index,
				Identity: out.identity,
				Err:      out.err,
			})
			event.Type = ProgressFailed
			event.Error = out.err
		case out.matched:
			result.Matches[out.kind] = append(result.Matches[out.kind], &finstmt.Match{
				Kind:     out.kind,
				Index:    out.index,
				Identity: out.identity,
				Table:    out.table,
			})
			event.Type = ProgressMatched
			event.Kind = out.kind
			event.Table = out.table
		case out.eligible:
			event.Type = ProgressUnmatched
			event.Table = out.table
		default:
			event.Type = ProgressSkipped
			event.Table = out.table
		}
		emit(event)
	}

	for kind, matches := range result.Matches {
		result.Matches[kind] = dedupe(matches)
	}

	policy := e.Policy
	if policy == "" {
		policy = finstmt.PolicyLast
	}
	result.Select(policy)

	emit(ProgressEvent{Type: ProgressFinished})

	return result, nil
}

// process normalizes and classifies a single fragment. A panic while
// reading the fragment is recovered into the outcome's error so one
// malformed table never aborts the run.
func process(index int, f finstmt.Fragment) (out outcome) {
	out.index = index
	out.identity = "table_" + strconv.Itoa(index)

	defer func() {
		if r := recover(); r != nil {
			out.err = finstmt.Errorf(finstmt.EINTERNAL, "table %d: %v", index, r)
			out.matched = false
		}
	}()

	out.identity = finstmt.Identify(f, index)
	out.table = finstmt.Normalize(f)
	out.eligible = finstmt.Eligible(out.table)
	out.kind, out.matched = finstmt.Classify(out.table)
	return out
}

// dedupe drops matches whose table content repeats in a later match.
// Filings often render the same statement twice.
func dedupe(matches []*finstmt.Match) []*finstmt.Match {
	seen := make(map[uint64]bool, len(matches))
	kept := make([]*finstmt.Match, 0, len(matches))
	for i := len(matches) - 1; i >= 0; i-- {
		fp := Fingerprint(matches[i].Table)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		kept = append(kept, matches[i])
	}
	slices.Reverse(kept)
	return kept
}

// store saves the selected table of every kind and commits. With no
// tables the store is aborted so nothing is written.
func (e *Extractor) store(ctx context.Context, result *finstmt.Result) error {
	if e.Store == nil {
		return nil
	}

	if len(result.Tables) == 0 {
		return e.Store.Abort()
	}

	for _, kind := range finstmt.Kinds {
		table, ok := result.Tables[kind]
		if !ok {
			continue
		}
		if err := e.Store.Save(ctx, kind, table); err != nil {
			_ = e.Store.Abort()
			return fmt.Errorf("save %s: %w", kind, err)
		}
	}

	if err := e.Store.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
