package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when an artifact does not exist in the store.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing serialized model artifacts.
//
// Artifacts are immutable once written: Put with an existing name replaces the
// whole object. Implementations must be safe for concurrent use.
type Store interface {
	// Put writes an artifact atomically. Readers never observe a partial write.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the full contents of an artifact.
	// Returns ErrNotFound if the artifact does not exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes an artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all artifacts with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
