package filtering

import (
	"fmt"
	"strings"
)

// TypeFilter matches package types by exact, case-insensitive comparison
type TypeFilter struct {
	include []string
	exclude []string
}

// NewTypeFilter creates a TypeFilter
func NewTypeFilter(include, exclude []string) *TypeFilter {
	return &TypeFilter{include: include, exclude: exclude}
}

// ShouldInclude reports whether a package of type pkgType passes the filter and why
func (f *TypeFilter) ShouldInclude(pkgType string) (bool, string) {
	for _, t := range f.exclude {
		if strings.EqualFold(t, pkgType) {
			return false, fmt.Sprintf("excluded by type '%s'", t)
		}
	}

	if len(f.include) > 0 {
		for _, t := range f.include {
			if strings.EqualFold(t, pkgType) {
				return true, fmt.Sprintf("included by type '%s'", t)
			}
		}
		return false, fmt.Sprintf("type %q not in include list %v", pkgType, f.include)
	}

	return true, "no type filters specified"
}
