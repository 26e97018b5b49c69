package content

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// PackageIdentity is the globally unique identity of a package version.
// Two identities are equal when every field is equal, so identities can be
// used directly as map keys.
type PackageIdentity struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
	Qualifier string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Type      string `json:"type" yaml:"type"`
}

// Key renders the identity as type/name@version[:qualifier].
func (id PackageIdentity) Key() string {
	var b strings.Builder
	b.WriteString(id.Type)
	b.WriteByte('/')
	b.WriteString(id.Name)
	b.WriteByte('@')
	b.WriteString(id.Version)
	if id.Qualifier != "" {
		b.WriteByte(':')
		b.WriteString(id.Qualifier)
	}
	return b.String()
}

// String implements fmt.Stringer
func (id PackageIdentity) String() string {
	return id.Key()
}

// Validate checks that the mandatory identity fields are set.
func (id PackageIdentity) Validate() error {
	switch {
	case id.Name == "":
		return fmt.Errorf("package name is required")
	case id.Version == "":
		return fmt.Errorf("package %s: version is required", id.Name)
	case id.Type == "":
		return fmt.Errorf("package %s@%s: type is required", id.Name, id.Version)
	}
	return nil
}

// Compare orders identities by type, name, version and qualifier.
func (id PackageIdentity) Compare(other PackageIdentity) int {
	return cmp.Or(
		cmp.Compare(id.Type, other.Type),
		cmp.Compare(id.Name, other.Name),
		cmp.Compare(id.Version, other.Version),
		cmp.Compare(id.Qualifier, other.Qualifier),
	)
}

// IdentitySet is a set of package identities.
type IdentitySet map[PackageIdentity]struct{}

// NewIdentitySet builds a set from the given identities.
func NewIdentitySet(ids ...PackageIdentity) IdentitySet {
	s := make(IdentitySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s IdentitySet) Add(id PackageIdentity) {
	s[id] = struct{}{}
}

// Has reports whether id is a member of the set.
func (s IdentitySet) Has(id PackageIdentity) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s IdentitySet) Len() int {
	return len(s)
}

// Minus returns the members of s that are not in other.
func (s IdentitySet) Minus(other IdentitySet) IdentitySet {
	out := make(IdentitySet)
	for id := range s {
		if !other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Intersect returns the members present in both s and other.
func (s IdentitySet) Intersect(other IdentitySet) IdentitySet {
	out := make(IdentitySet)
	for id := range s {
		if other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Union returns the members present in s or other.
func (s IdentitySet) Union(other IdentitySet) IdentitySet {
	out := make(IdentitySet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in deterministic order.
func (s IdentitySet) Sorted() []PackageIdentity {
	out := make([]PackageIdentity, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.SortFunc(out, PackageIdentity.Compare)
	return out
}
