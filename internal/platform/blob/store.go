// Package blob abstracts the whole-document store backing the serial
// ledger and audit log. Documents are opaque byte blobs keyed by name;
// the store exposes no conditional writes, so callers must serialize
// their own read-modify-write cycles.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("blob: not found")

// Store reads and writes whole documents by key.
type Store interface {
	// Get returns the document bytes, or ErrNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the entire document.
	Put(ctx context.Context, key string, data []byte) error
}
