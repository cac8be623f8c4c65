package main

import (
	"context"
	"io"
	"strings"

	"github.com/fwojciec/finstmt"
)

// Compile-time interface verification.
var _ finstmt.DocumentSource = (*LocationSource)(nil)

// LocationSource implements finstmt.DocumentSource by opening http and
// https URLs with one source and everything else with another.
type LocationSource struct {
	web  finstmt.DocumentSource
	file finstmt.DocumentSource
}

// NewLocationSource creates a new LocationSource.
func NewLocationSource(web, file finstmt.DocumentSource) *LocationSource {
	return &LocationSource{
		web:  web,
		file: file,
	}
}

// Open implements finstmt.DocumentSource.
func (s *LocationSource) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if IsURL(location) {
		return s.web.Open(ctx, location)
	}
	return s.file.Open(ctx, location)
}

// IsURL reports whether location is an http or https URL.
func IsURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
