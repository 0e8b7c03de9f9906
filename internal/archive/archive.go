// Package archive persists raw provider payloads as blobs before
// normalization, so the original scrape survives schema changes in the
// canonical record.
package archive

import (
	"context"
	"io"
)

// BlobStore writes one artifact and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// NoOp discards payloads. Used when archiving is disabled.
type NoOp struct{}

// PutObject drops the data and reports a synthetic URI.
func (NoOp) PutObject(_ context.Context, path string, _ string, _ io.Reader) (string, error) {
	return "noop://" + path, nil
}
