package filtering

import (
	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/content"
)

// PackageFilter combines the name and type filters of a provider. A nil
// *PackageFilter includes every package.
type PackageFilter struct {
	names *NameFilter
	types *TypeFilter
}

// NewPackageFilter builds the filter described by cfg. It returns nil when
// cfg has no rules.
func NewPackageFilter(cfg *config.FilterConfig) (*PackageFilter, error) {
	if cfg.IsEmpty() {
		return nil, nil
	}

	f := &PackageFilter{}
	if cfg.Names != nil {
		names, err := NewNameFilter(cfg.Names.Include, cfg.Names.Exclude)
		if err != nil {
			return nil, err
		}
		f.names = names
	}
	if cfg.Types != nil {
		f.types = NewTypeFilter(cfg.Types.Include, cfg.Types.Exclude)
	}
	return f, nil
}

// ShouldInclude reports whether id passes both filters, with the reason of
// the deciding filter
func (f *PackageFilter) ShouldInclude(id content.PackageIdentity) (bool, string) {
	if f == nil {
		return true, "no filters specified"
	}

	reason := "no filters specified"
	if f.names != nil {
		var ok bool
		if ok, reason = f.names.ShouldInclude(id.Name); !ok {
			return false, reason
		}
	}
	if f.types != nil {
		var ok bool
		if ok, reason = f.types.ShouldInclude(id.Type); !ok {
			return false, reason
		}
	}
	return true, reason
}
