package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no blob exists under a key.
	ErrNotFound = errors.New("state blob not found")

	// ErrVersionConflict is returned when a write's version token does not
	// match the stored blob, meaning another writer updated it first.
	ErrVersionConflict = errors.New("state blob version conflict")
)

// Blob is stored content plus the version token needed to replace it.
type Blob struct {
	Content []byte
	Version string
}

// BlobStore is a versioned key-value store for run state.
type BlobStore interface {
	// Name returns the backend identifier.
	Name() string

	// Read returns the blob stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) (*Blob, error)

	// Write replaces the blob under key if its current version equals
	// version, and returns the new version. An empty version creates the
	// blob and fails with ErrVersionConflict if it already exists.
	Write(ctx context.Context, key string, content []byte, version string) (string, error)

	// Delete removes the blob under key if its current version equals version.
	Delete(ctx context.Context, key string, version string) error

	// Close releases resources.
	Close() error
}
