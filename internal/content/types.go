package content

import (
	"time"

	"github.com/google/uuid"
)

// UnknownSize marks a descriptor whose provider does not declare a size.
const UnknownSize int64 = -1

// PackageDescriptor describes a package as reported by a content provider.
type PackageDescriptor struct {
	PackageIdentity `json:",inline" yaml:",inline"`

	// Location is the provider-specific locator used to open the content stream
	Location string `json:"location,omitempty" yaml:"location,omitempty"`

	// DeclaredSize is the content size announced by the provider, or UnknownSize
	DeclaredSize int64 `json:"size" yaml:"size"`

	// Checksum is an algorithm-prefixed digest (e.g. sha256:<hex>), empty when unknown
	Checksum string `json:"digest,omitempty" yaml:"digest,omitempty"`

	DisplayName string            `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Identity returns the identity of the described package.
func (d PackageDescriptor) Identity() PackageIdentity {
	return d.PackageIdentity
}

// HasDeclaredSize reports whether the provider declared a content size.
func (d PackageDescriptor) HasDeclaredSize() bool {
	return d.DeclaredSize >= 0
}

// SameContent reports whether two descriptors of the same identity
// disagree on neither declared size nor declared checksum. Undeclared
// values never conflict.
func (d PackageDescriptor) SameContent(other PackageDescriptor) bool {
	if d.HasDeclaredSize() && other.HasDeclaredSize() && d.DeclaredSize != other.DeclaredSize {
		return false
	}
	if d.Checksum != "" && other.Checksum != "" && d.Checksum != other.Checksum {
		return false
	}
	return true
}

// Repository is a logical collection of package versions kept in step with
// the content providers attached to it.
type Repository struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Providers    []string      `json:"providers"`
	SyncInterval time.Duration `json:"syncInterval,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// PackageVersion is a globally shared package version record. A version is
// stored once and referenced by every repository that holds it.
type PackageVersion struct {
	ID              uuid.UUID `json:"id"`
	PackageIdentity `json:",inline"`
	Size            int64     `json:"size"`
	Digest          string    `json:"digest"`
	BlobKey         string    `json:"blobKey"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Association links a repository to a package version.
type Association struct {
	RepositoryID     uuid.UUID       `json:"repositoryId"`
	PackageVersionID uuid.UUID       `json:"packageVersionId"`
	Identity         PackageIdentity `json:"identity"`
	// Providers lists the providers that reported the identity when they
	// were last listed successfully.
	Providers []string  `json:"providers"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IdentitiesOf returns the identity set of the given associations.
func IdentitiesOf(assocs []Association) IdentitySet {
	s := make(IdentitySet, len(assocs))
	for _, a := range assocs {
		s.Add(a.Identity)
	}
	return s
}
