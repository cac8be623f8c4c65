// Package fs provides file-based document sources and table storage.
package fs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/fwojciec/finstmt"
)

// Ensure Source implements finstmt.DocumentSource at compile time.
var _ finstmt.DocumentSource = (*Source)(nil)

// Source opens filings stored on the local filesystem.
type Source struct{}

// NewSource creates a new Source.
func NewSource() *Source {
	return &Source{}
}

// Open opens the file at path. Returns ENOTFOUND if it does not exist.
func (s *Source) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, finstmt.Errorf(finstmt.ENOTFOUND, "file not found: %s", path)
	}
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, finstmt.Errorf(finstmt.EINVALID, "not a file: %s", path)
	}

	return f, nil
}
