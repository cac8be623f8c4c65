package mock

import (
	"context"

	"github.com/fwojciec/finstmt"
)

var _ finstmt.TableStore = (*TableStore)(nil)

// TableStore is a mock implementation of finstmt.TableStore.
type TableStore struct {
	SaveFn   func(ctx context.Context, kind finstmt.Kind, table *finstmt.Table) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *TableStore) Save(ctx context.Context, kind finstmt.Kind, table *finstmt.Table) error {
	return s.SaveFn(ctx, kind, table)
}

func (s *TableStore) Commit() error {
	return s.CommitFn()
}

func (s *TableStore) Abort() error {
	return s.AbortFn()
}

var _ finstmt.TableRenderer = (*TableRenderer)(nil)

// TableRenderer is a mock implementation of finstmt.TableRenderer.
type TableRenderer struct {
	RenderFn func(table *finstmt.Table) (string, error)
}

func (r *TableRenderer) Render(table *finstmt.Table) (string, error) {
	return r.RenderFn(table)
}
