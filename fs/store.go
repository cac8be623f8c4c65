package fs

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/finstmt"
)

// Ensure CSVStore implements finstmt.TableStore at compile time.
var _ finstmt.TableStore = (*CSVStore)(nil)

// CSVStore implements finstmt.TableStore by writing one CSV file per
// statement kind. Tables are saved to a temporary directory next to the
// output directory and moved into place on Commit, so a failed run never
// leaves partial files behind.
type CSVStore struct {
	dir string

	// staged is set once the staging directory has been cleared for this
	// store, so leftovers of an interrupted run are never committed.
	staged bool
}

// NewCSVStore creates a new CSVStore writing to dir.
// Files are staged in dir.tmp and moved to dir on Commit.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: filepath.Clean(dir)}
}

func (s *CSVStore) tempDir() string {
	return s.dir + ".tmp"
}

// Path returns the final path of the file for kind.
func (s *CSVStore) Path(kind finstmt.Kind) string {
	return filepath.Join(s.dir, FileName(kind))
}

// FileName returns the CSV file name for kind.
func FileName(kind finstmt.Kind) string {
	return string(kind) + ".csv"
}

// Save stages table as <kind>.csv. The first record holds the column labels.
func (s *CSVStore) Save(ctx context.Context, kind finstmt.Kind, table *finstmt.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if table.Empty() {
		return finstmt.Errorf(finstmt.EINVALID, "refusing to save empty %s table", kind)
	}

	if !s.staged {
		if err := os.RemoveAll(s.tempDir()); err != nil {
			return err
		}
		s.staged = true
	}
	if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(s.tempDir(), FileName(kind)))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, table); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes table as CSV with a header record.
func WriteCSV(w io.Writer, table *finstmt.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	// WriteAll flushes.
	return cw.WriteAll(table.Rows)
}

// Commit moves staged files into the output directory, replacing files of
// the same name and leaving other files untouched. Only files saved through
// this store are committed.
func (s *CSVStore) Commit() error {
	if !s.staged {
		return nil
	}
	s.staged = false

	entries, err := os.ReadDir(s.tempDir())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	for _, entry := range entries {
		from := filepath.Join(s.tempDir(), entry.Name())
		to := filepath.Join(s.dir, entry.Name())
		if err := os.Rename(from, to); err != nil {
			return err
		}
	}

	return os.RemoveAll(s.tempDir())
}

// Abort discards staged files.
func (s *CSVStore) Abort() error {
	s.staged = false
	return os.RemoveAll(s.tempDir())
}
