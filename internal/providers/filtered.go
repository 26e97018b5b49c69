package providers

import (
	"context"
	"iter"
	"log/slog"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/filtering"
)

// filteredProvider hides the packages its filter excludes
type filteredProvider struct {
	Provider
	filter *filtering.PackageFilter
}

// Filtered wraps p so that only packages passing filter are listed. A nil
// filter returns p unchanged.
func Filtered(p Provider, filter *filtering.PackageFilter) Provider {
	if filter == nil {
		return p
	}
	return &filteredProvider{Provider: p, filter: filter}
}

func (p *filteredProvider) ListPackages(ctx context.Context) iter.Seq2[content.PackageDescriptor, error] {
	return func(yield func(content.PackageDescriptor, error) bool) {
		for desc, err := range p.Provider.ListPackages(ctx) {
			if err != nil {
				yield(desc, err)
				return
			}
			if ok, reason := p.filter.ShouldInclude(desc.PackageIdentity); !ok {
				slog.Debug("Package filtered out",
					"provider", p.Name(),
					"package", desc.PackageIdentity.String(),
					"reason", reason)
				continue
			}
			if !yield(desc, nil) {
				return
			}
		}
	}
}

// Close closes the wrapped provider when it holds resources
func (p *filteredProvider) Close(ctx context.Context) error {
	if c, ok := p.Provider.(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}
