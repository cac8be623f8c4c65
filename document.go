package finstmt

import (
	"context"
	"io"
)

// DocumentSource opens a filing for reading.
// Returns ENOTFOUND if the document does not exist.
type DocumentSource interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// DocumentParser parses markup into table fragments in document order.
type DocumentParser interface {
	Parse(r io.Reader) ([]Fragment, error)
}

// TableStore persists statement tables with atomic semantics.
// Save stages a table; Commit makes staged tables permanent;
// Abort discards them.
type TableStore interface {
	Save(ctx context.Context, kind Kind, table *Table) error
	Commit() error
	Abort() error
}

// TableRenderer renders a table for display.
type TableRenderer interface {
	Render(table *Table) (string, error)
}

// Ensure MultiTableStore implements TableStore at compile time.
var _ TableStore = (MultiTableStore)(nil)

// MultiTableStore fans every call out to a list of stores.
type MultiTableStore []TableStore

// Save saves the table in every store, stopping at the first error.
func (s MultiTableStore) Save(ctx context.Context, kind Kind, table *Table) error {
	for _, store := range s {
		if err := store.Save(ctx, kind, table); err != nil {
			return err
		}
	}
	return nil
}

// Commit commits every store, stopping at the first error.
func (s MultiTableStore) Commit() error {
	for _, store := range s {
		if err := store.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Abort aborts every store and returns the first error.
func (s MultiTableStore) Abort() error {
	var first error
	for _, store := range s {
		if err := store.Abort(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
