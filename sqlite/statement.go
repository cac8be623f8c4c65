package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fwojciec/finstmt"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ finstmt.TableStore = (*TableStore)(nil)

// TableStore implements finstmt.TableStore using SQLite. Every store
// represents one extraction run: saved tables are written inside a single
// transaction that Commit makes permanent and Abort rolls back.
type TableStore struct {
	db     *DB
	source string
	runID  string
	tx     *sql.Tx
}

// NewTableStore creates a new TableStore for a run over source.
func NewTableStore(db *DB, source string) *TableStore {
	return &TableStore{
		db:     db,
		source: source,
		runID:  uuid.New().String(),
	}
}

// RunID returns the identifier of the run the store writes.
func (s *TableStore) RunID() string {
	return s.runID
}

// Save stages table as the run's statement of the given kind,
// replacing a previously saved table of the same kind.
func (s *TableStore) Save(ctx context.Context, kind finstmt.Kind, table *finstmt.Table) error {
	if table.Empty() {
		return finstmt.Errorf(finstmt.EINVALID, "refusing to save empty %s table", kind)
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM statements WHERE run_id = ? AND kind = ?
	`, s.runID, string(kind)); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO statements (run_id, kind, has_header, num_rows, num_columns)
		VALUES (?, ?, ?, ?, ?)
	`, s.runID, string(kind), table.HasHeader, table.NumRows(), table.NumColumns())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	colStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO statement_columns (statement_id, position, name) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer colStmt.Close()

	for i, name := range table.Columns {
		if _, err := colStmt.ExecContext(ctx, id, i, name); err != nil {
			return fmt.Errorf("failed to insert column %d: %w", i, err)
		}
	}

	cellStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO statement_cells (statement_id, row_num, col_num, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer cellStmt.Close()

	for r, row := range table.Rows {
		for c, value := range row {
			if _, err := cellStmt.ExecContext(ctx, id, r, c, value); err != nil {
				return fmt.Errorf("failed to insert cell (%d, %d): %w", r, c, err)
			}
		}
	}

	return nil
}

// begin starts the run's transaction on first use and records the run.
func (s *TableStore) begin(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, created_at) VALUES (?, ?, ?)
	`, s.runID, s.source, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	s.tx = tx
	return tx, nil
}

// Commit makes every saved table permanent.
func (s *TableStore) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

// Abort discards every saved table.
func (s *TableStore) Abort() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}

// FindTable retrieves the table of the given kind saved by a run.
// Returns ENOTFOUND if the run has no such table.
func FindTable(ctx context.Context, db *DB, runID string, kind finstmt.Kind) (*finstmt.Table, error) {
	var id int64
	var hasHeader bool
	var numRows, numColumns int

	err := db.QueryRowContext(ctx, `
		SELECT id, has_header, num_rows, num_columns
		FROM statements
		WHERE run_id = ? AND kind = ?
	`, runID, string(kind)).Scan(&id, &hasHeader, &numRows, &numColumns)
	if err == sql.ErrNoRows {
		return nil, finstmt.Errorf(finstmt.ENOTFOUND, "%s not found for run %s", kind, runID)
	}
	if err != nil {
		return nil, err
	}

	table := &finstmt.Table{
		Columns:   make([]string, numColumns),
		HasHeader: hasHeader,
		Rows:      make([][]string, numRows),
	}
	for i := range table.Rows {
		table.Rows[i] = make([]string, numColumns)
	}

	// Rows hold the only connection until closed, so each query is read
	// to completion before the next starts.
	if err := readColumns(ctx, db, id, table); err != nil {
		return nil, err
	}
	if err := readCells(ctx, db, id, table); err != nil {
		return nil, err
	}

	return table, nil
}

func readColumns(ctx context.Context, db *DB, statementID int64, table *finstmt.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT position, name FROM statement_columns WHERE statement_id = ?
	`, statementID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pos int
		var name string
		if err := rows.Scan(&pos, &name); err != nil {
			return err
		}
		if pos < len(table.Columns) {
			table.Columns[pos] = name
		}
	}
	return rows.Err()
}

func readCells(ctx context.Context, db *DB, statementID int64, table *finstmt.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT row_num, col_num, value FROM statement_cells WHERE statement_id = ?
	`, statementID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r, c int
		var value string
		if err := rows.Scan(&r, &c, &value); err != nil {
			return err
		}
		if r < len(table.Rows) && c < len(table.Columns) {
			table.Rows[r][c] = value
		}
	}
	return rows.Err()
}
