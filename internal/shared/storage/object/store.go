package object

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for keys that are absolute or escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStore defines the contract for writing and reading objects at
// caller-chosen keys.
type ObjectStore interface {
	Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
