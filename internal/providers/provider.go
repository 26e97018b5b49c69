// Package providers implements the content provider adapters the sync
// engine lists packages from and fetches package content through.
//
// Every adapter exposes the same two operations: a lazy, single-pass
// listing of package descriptors and a content stream per descriptor.
// Errors are classified with the sentinels in this package so callers can
// tell transient unavailability from permanent protocol failures.
package providers

import (
	"context"
	"io"
	"iter"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks github.com/stacklok/toolhive-content-sync/internal/providers Provider,Factory

// Provider is a content provider adapter.
type Provider interface {
	// Name is the configured provider name
	Name() string

	// Type is the provider kind (filesystem, http, git, s3, memory)
	Type() string

	// ListPackages returns a lazy sequence of the packages the provider
	// currently offers. The sequence is single-pass; calling ListPackages
	// again starts a fresh traversal. On failure the sequence yields one
	// non-nil error and stops. A failed listing is never an empty listing.
	ListPackages(ctx context.Context) iter.Seq2[content.PackageDescriptor, error]

	// OpenContent opens the content stream of a listed package. The caller
	// closes the returned reader.
	OpenContent(ctx context.Context, desc content.PackageDescriptor) (io.ReadCloser, error)
}

// Closer is implemented by providers holding resources between calls
type Closer interface {
	Close(ctx context.Context) error
}

// Collect drains a listing into a slice, stopping at the first error.
func Collect(ctx context.Context, p Provider) ([]content.PackageDescriptor, error) {
	var out []content.PackageDescriptor
	for desc, err := range p.ListPackages(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}
