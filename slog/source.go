// Package slog provides log/slog decorators for finstmt services.
package slog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/finstmt"
)

// Ensure LoggingSource implements finstmt.DocumentSource.
var _ finstmt.DocumentSource = (*LoggingSource)(nil)

// LoggingSource wraps a DocumentSource with debug logging.
type LoggingSource struct {
	next   finstmt.DocumentSource
	logger *slog.Logger
}

// NewLoggingSource creates a new LoggingSource.
func NewLoggingSource(next finstmt.DocumentSource, logger *slog.Logger) *LoggingSource {
	return &LoggingSource{next: next, logger: logger}
}

// Open delegates to the wrapped source and logs the operation.
func (s *LoggingSource) Open(ctx context.Context, location string) (rc io.ReadCloser, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("open document",
			"location", location,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Open(ctx, location)
}

// Ensure LoggingParser implements finstmt.DocumentParser.
var _ finstmt.DocumentParser = (*LoggingParser)(nil)

// LoggingParser wraps a DocumentParser with debug logging.
type LoggingParser struct {
	next   finstmt.DocumentParser
	logger *slog.Logger
}

// NewLoggingParser creates a new LoggingParser.
func NewLoggingParser(next finstmt.DocumentParser, logger *slog.Logger) *LoggingParser {
	return &LoggingParser{next: next, logger: logger}
}

// Parse delegates to the wrapped parser and logs how many tables it found.
func (p *LoggingParser) Parse(r io.Reader) (fragments []finstmt.Fragment, err error) {
	defer func(begin time.Time) {
		p.logger.Debug("parse document",
			"tables", len(fragments),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Parse(r)
}
