// Package fileutil provides shared file-transfer utilities for sesh
// transport providers: progress reporting and context cancellation checking
// for long-running io.Copy operations.
package fileutil

import (
	"context"
	"io"
)

// ProgressFunc is a callback for tracking file transfer progress.
type ProgressFunc func(current, total int64)

// ProgressReader wraps an io.Reader to report progress via a ProgressFunc.
// Total should be set to the known total size for percentage-based progress
// reporting, or 0 if unknown.
type ProgressReader struct {
	io.Reader

	Total   int64
	Current int64
	Fn      ProgressFunc
}

// Read reads from the underlying reader and reports progress.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.Current += int64(n)
		if pr.Fn != nil {
			pr.Fn(pr.Current, pr.Total)
		}
	}

	return n, err
}

// ContextReader wraps an io.Reader to check for context cancellation before
// each Read call. This allows long-running io.Copy operations to be
// interrupted by context cancellation.
type ContextReader struct {
	Ctx    context.Context //nolint:containedctx
	Reader io.Reader
}

// Read checks for context cancellation before delegating to the underlying
// reader.
func (cr *ContextReader) Read(p []byte) (int, error) {
	if cr.Ctx.Err() != nil {
		return 0, cr.Ctx.Err()
	}

	return cr.Reader.Read(p)
}
