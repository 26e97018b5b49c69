package versions

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Compare orders two version strings. Valid semver sorts by precedence and
// before anything that does not parse; the rest compare as plain strings.
func Compare(a, b string) int {
	av, errA := semver.NewVersion(a)
	bv, errB := semver.NewVersion(b)

	switch {
	case errA == nil && errB == nil:
		if c := av.Compare(bv); c != 0 {
			return c
		}
		// 1.0 and 1.0.0 have equal precedence but are distinct versions
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Matcher reports whether a version satisfies a parsed constraint
type Matcher func(version string) bool

// ParseConstraint parses a semver constraint such as ">= 1.2, < 2". Versions
// that are not valid semver never match.
func ParseConstraint(constraint string) (Matcher, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	return func(version string) bool {
		v, err := semver.NewVersion(version)
		if err != nil {
			return false
		}
		return c.Check(v)
	}, nil
}
