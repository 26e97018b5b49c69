package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/git"
)

type gitProvider struct {
	name      string
	client    git.Client
	clone     git.CloneConfig
	indexPath string

	mu   sync.Mutex
	repo *git.RepositoryInfo
}

// NewGitProvider serves packages listed in the manifest at indexPath of a
// Git repository. Each listing takes a fresh clone; content is read from
// the clone of the latest listing until Close releases it.
func NewGitProvider(name string, client git.Client, clone git.CloneConfig, indexPath string) Provider {
	if indexPath == "" {
		indexPath = DefaultIndexFile
	}
	if client == nil {
		client = git.NewDefaultGitClient()
	}
	return &gitProvider{name: name, client: client, clone: clone, indexPath: indexPath}
}

func (p *gitProvider) Name() string {
	return p.name
}

func (*gitProvider) Type() string {
	return "git"
}

func (p *gitProvider) ListPackages(ctx context.Context) iter.Seq2[content.PackageDescriptor, error] {
	return func(yield func(content.PackageDescriptor, error) bool) {
		data, err := p.readIndex(ctx)
		if err != nil {
			yield(content.PackageDescriptor{}, err)
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

func (p *gitProvider) readIndex(ctx context.Context) ([]byte, error) {
	info, err := p.client.Clone(ctx, &p.clone)
	if err != nil {
		return nil, Unavailable(p.name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.repo != nil && p.repo.CommitHash == info.CommitHash {
		// Same HEAD; keep the cached clone
		p.release(ctx, info)
	} else {
		if p.repo != nil {
			p.release(ctx, p.repo)
		}
		p.repo = info
	}

	data, err := p.client.GetFileContent(p.repo, p.indexPath)
	if err != nil {
		return nil, Unavailable(p.name, fmt.Errorf("failed to read index %s: %w", p.indexPath, err))
	}
	return data, nil
}

// OpenContent reads the file from the cached clone. go-git repositories are
// not safe for concurrent reads, so content is buffered under the lock.
func (p *gitProvider) OpenContent(ctx context.Context, desc content.PackageDescriptor) (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.repo == nil {
		info, err := p.client.Clone(ctx, &p.clone)
		if err != nil {
			return nil, Unavailable(p.name, err)
		}
		p.repo = info
	}

	data, err := p.client.GetFileContent(p.repo, desc.Location)
	switch {
	case errors.Is(err, git.ErrFileNotFound):
		return nil, NotFound(p.name, fmt.Errorf("package %s: %w", desc.Key(), err))
	case err != nil:
		return nil, Unavailable(p.name, fmt.Errorf("package %s: %w", desc.Key(), err))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Close releases the cached clone
func (p *gitProvider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.repo == nil {
		return nil
	}
	err := p.client.Cleanup(ctx, p.repo)
	p.repo = nil
	return err
}

func (p *gitProvider) release(ctx context.Context, info *git.RepositoryInfo) {
	if err := p.client.Cleanup(ctx, info); err != nil {
		slog.WarnContext(ctx, "Failed to release git clone", "provider", p.name, "error", err)
	}
}
