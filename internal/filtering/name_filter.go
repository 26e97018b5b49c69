package filtering

import (
	"fmt"

	"github.com/gobwas/glob"
)

type pattern struct {
	source string
	glob   glob.Glob
}

// NameFilter matches package names against include and exclude glob patterns
type NameFilter struct {
	include []pattern
	exclude []pattern
}

// NewNameFilter compiles the include and exclude patterns
func NewNameFilter(include, exclude []string) (*NameFilter, error) {
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return &NameFilter{include: inc, exclude: exc}, nil
}

func compilePatterns(sources []string) ([]pattern, error) {
	out := make([]pattern, 0, len(sources))
	for _, src := range sources {
		if src == "" {
			return nil, fmt.Errorf("empty pattern")
		}
		// No separators: '*' matches across '/' as well
		g, err := glob.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", src, err)
		}
		out = append(out, pattern{source: src, glob: g})
	}
	return out, nil
}

// ShouldInclude reports whether name passes the filter and why
func (f *NameFilter) ShouldInclude(name string) (bool, string) {
	for _, p := range f.exclude {
		if p.glob.Match(name) {
			return false, fmt.Sprintf("excluded by name pattern '%s'", p.source)
		}
	}

	if len(f.include) > 0 {
		for _, p := range f.include {
			if p.glob.Match(name) {
				return true, fmt.Sprintf("included by name pattern '%s'", p.source)
			}
		}
		return false, "no match in include name patterns"
	}

	if len(f.exclude) > 0 {
		return true, "no match in exclude name patterns"
	}
	return true, "no name filters specified"
}
