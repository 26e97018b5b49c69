// Package blob stores package content under content-addressed keys.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

// ErrNotFound is returned when a key holds no blob
var ErrNotFound = errors.New("blob not found")

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=blob.go Store

// Store is a content-addressed blob store. Writing the same key twice is
// a no-op, so content is stored once however many repositories hold it.
type Store interface {
	// Put stores size bytes read from r under key
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Open returns the blob stored under key
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key holds a blob
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the blob under key; deleting a missing key succeeds
	Delete(ctx context.Context, key string) error
}

// KeyFor returns the storage key of a digest: <algorithm>/<hex[:2]>/<hex>
func KeyFor(d digest.Digest) (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("invalid digest %q: %w", d, err)
	}
	hex := d.Encoded()
	return fmt.Sprintf("%s/%s/%s", d.Algorithm(), hex[:2], hex), nil
}
