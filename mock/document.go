package mock

import (
	"context"
	"io"

	"github.com/fwojciec/finstmt"
)

var _ finstmt.DocumentSource = (*DocumentSource)(nil)

// DocumentSource is a mock implementation of finstmt.DocumentSource.
type DocumentSource struct {
	OpenFn func(ctx context.Context, location string) (io.ReadCloser, error)
}

func (s *DocumentSource) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	return s.OpenFn(ctx, location)
}

var _ finstmt.DocumentParser = (*DocumentParser)(nil)

// DocumentParser is a mock implementation of finstmt.DocumentParser.
type DocumentParser struct {
	ParseFn func(r io.Reader) ([]finstmt.Fragment, error)
}

func (p *DocumentParser) Parse(r io.Reader) ([]finstmt.Fragment, error) {
	return p.ParseFn(r)
}
