package providers

import (
	"fmt"
	"iter"

	"github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

// Index is the package manifest served by filesystem, HTTP and Git
// providers. It is YAML; JSON documents parse as well.
type Index struct {
	Packages []IndexEntry `yaml:"packages" json:"packages"`
}

// IndexEntry describes one package in an Index
type IndexEntry struct {
	Name        string            `yaml:"name" json:"name"`
	Version     string            `yaml:"version" json:"version"`
	Qualifier   string            `yaml:"qualifier,omitempty" json:"qualifier,omitempty"`
	Type        string            `yaml:"type" json:"type"`
	Path        string            `yaml:"path" json:"path"`
	Size        *int64            `yaml:"size,omitempty" json:"size,omitempty"`
	Digest      string            `yaml:"digest,omitempty" json:"digest,omitempty"`
	DisplayName string            `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// ParseIndex decodes and validates an index document. Any problem is a
// protocol error of provider.
func ParseIndex(provider string, data []byte) ([]content.PackageDescriptor, error) {
	var index Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, Protocol(provider, fmt.Errorf("failed to parse index: %w", err))
	}

	seen := make(content.IdentitySet, len(index.Packages))
	descriptors := make([]content.PackageDescriptor, 0, len(index.Packages))
	for i, entry := range index.Packages {
		desc, err := entry.descriptor()
		if err != nil {
			return nil, Protocol(provider, fmt.Errorf("index entry %d: %w", i, err))
		}
		if seen.Has(desc.PackageIdentity) {
			return nil, Protocol(provider, fmt.Errorf("index entry %d: duplicate package %s", i, desc.Key()))
		}
		seen.Add(desc.PackageIdentity)
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

func (e IndexEntry) descriptor() (content.PackageDescriptor, error) {
	desc := content.PackageDescriptor{
		PackageIdentity: content.PackageIdentity{
			Name:      e.Name,
			Version:   e.Version,
			Qualifier: e.Qualifier,
			Type:      e.Type,
		},
		Location:     e.Path,
		DeclaredSize: content.UnknownSize,
		DisplayName:  e.DisplayName,
		Metadata:     e.Metadata,
	}

	if err := desc.Validate(); err != nil {
		return desc, err
	}
	if e.Path == "" {
		return desc, fmt.Errorf("package %s: path is required", desc.Key())
	}
	if e.Size != nil {
		if *e.Size < 0 {
			return desc, fmt.Errorf("package %s: size must not be negative", desc.Key())
		}
		desc.DeclaredSize = *e.Size
	}
	if e.Digest != "" {
		d, err := digest.Parse(e.Digest)
		if err != nil {
			return desc, fmt.Errorf("package %s: invalid digest: %w", desc.Key(), err)
		}
		desc.Checksum = d.String()
	}
	return desc, nil
}

// yieldAll adapts a fully read descriptor slice to the listing iterator.
func yieldAll(descs []content.PackageDescriptor, err error) iter.Seq2[content.PackageDescriptor, error] {
	return func(yield func(content.PackageDescriptor, error) bool) {
		if err != nil {
			yield(content.PackageDescriptor{}, err)
			return
		}
		for _, d := range descs {
			if !yield(d, nil) {
				return
			}
		}
	}
}
