package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/finstmt"
)

// Ensure LoggingTableStore implements finstmt.TableStore.
var _ finstmt.TableStore = (*LoggingTableStore)(nil)

// LoggingTableStore wraps a TableStore with logging. Saves are logged at
// debug level; commits and aborts at info level.
type LoggingTableStore struct {
	next   finstmt.TableStore
	logger *slog.Logger
}

// NewLoggingTableStore creates a new LoggingTableStore.
func NewLoggingTableStore(next finstmt.TableStore, logger *slog.Logger) *LoggingTableStore {
	return &LoggingTableStore{next: next, logger: logger}
}

// Save delegates to the wrapped store and logs the table shape.
func (s *LoggingTableStore) Save(ctx context.Context, kind finstmt.Kind, table *finstmt.Table) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("save table",
			"kind", kind,
			"rows", table.NumRows(),
			"columns", table.NumColumns(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, kind, table)
}

// Commit delegates to the wrapped store.
func (s *LoggingTableStore) Commit() (err error) {
	defer func(begin time.Time) {
		s.logger.Info("commit tables",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Commit()
}

// Abort delegates to the wrapped store.
func (s *LoggingTableStore) Abort() (err error) {
	defer func(begin time.Time) {
		s.logger.Info("abort tables",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Abort()
}
