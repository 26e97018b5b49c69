package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

// DefaultIndexFile is the manifest name used when none is configured
const DefaultIndexFile = "index.yaml"

type filesystemProvider struct {
	name      string
	dir       string
	indexFile string
}

// NewFilesystemProvider serves packages listed in dir/indexFile. Content
// locations are slash-separated paths relative to dir and may not escape it.
func NewFilesystemProvider(name, dir, indexFile string) Provider {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	return &filesystemProvider{name: name, dir: dir, indexFile: indexFile}
}

func (p *filesystemProvider) Name() string {
	return p.name
}

func (*filesystemProvider) Type() string {
	return "filesystem"
}

func (p *filesystemProvider) ListPackages(_ context.Context) iter.Seq2[content.PackageDescriptor, error] {
	return func(yield func(content.PackageDescriptor, error) bool) {
		root, err := os.OpenRoot(p.dir)
		if err != nil {
			yield(content.PackageDescriptor{}, Unavailable(p.name, err))
			return
		}
		defer root.Close()

		data, err := fs.ReadFile(root.FS(), p.indexFile)
		if err != nil {
			yield(content.PackageDescriptor{}, Unavailable(p.name, fmt.Errorf("failed to read index: %w", err)))
			return
		}

		descs, err := ParseIndex(p.name, data)
		for desc, err := range yieldAll(descs, err) {
			if !yield(desc, err) {
				return
			}
		}
	}
}

func (p *filesystemProvider) OpenContent(_ context.Context, desc content.PackageDescriptor) (io.ReadCloser, error) {
	location := path.Clean(desc.Location)
	if !fs.ValidPath(location) {
		return nil, Protocol(p.name, fmt.Errorf("package %s: invalid location %q", desc.Key(), desc.Location))
	}

	root, err := os.OpenRoot(p.dir)
	if err != nil {
		return nil, Unavailable(p.name, err)
	}
	defer root.Close()

	f, err := root.Open(location)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, NotFound(p.name, fmt.Errorf("package %s: %w", desc.Key(), err))
	case err != nil:
		return nil, Unavailable(p.name, err)
	}
	return f, nil
}
