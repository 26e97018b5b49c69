package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	// DefaultMaxFiles caps the files of a single clone
	DefaultMaxFiles = 10 * 1000
	// DefaultMaxTotalSize caps the bytes of a single clone
	DefaultMaxTotalSize = 100 * 1024 * 1024
)

// ErrFileNotFound is returned when a path does not exist in the checked out tree
var ErrFileNotFound = errors.New("file not found in repository")

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client defines the interface for Git operations
type Client interface {
	// Clone clones a repository with the given configuration
	Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error)

	// GetFileContent retrieves the content of a file at HEAD
	GetFileContent(repoInfo *RepositoryInfo, path string) ([]byte, error)

	// OpenFile opens a file at HEAD for streaming
	OpenFile(repoInfo *RepositoryInfo, path string) (io.ReadCloser, int64, error)

	// Cleanup releases the in-memory repository
	Cleanup(ctx context.Context, repoInfo *RepositoryInfo) error
}

// ClientOption configures the default client
type ClientOption func(*defaultGitClient)

// WithLimits overrides the per-clone file count and size limits
func WithLimits(maxFiles, maxTotalSize int64) ClientOption {
	return func(c *defaultGitClient) {
		c.maxFiles = maxFiles
		c.maxTotalSize = maxTotalSize
	}
}

type defaultGitClient struct {
	maxFiles     int64
	maxTotalSize int64
}

// NewDefaultGitClient creates a go-git backed Client
func NewDefaultGitClient(opts ...ClientOption) Client {
	c := &defaultGitClient{
		maxFiles:     DefaultMaxFiles,
		maxTotalSize: DefaultMaxTotalSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone clones a repository with the given configuration
func (c *defaultGitClient) Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("repository URL is required")
	}

	cloneOptions := &git.CloneOptions{
		URL: config.URL,
	}
	if config.Auth != nil && config.Auth.Username != "" {
		cloneOptions.Auth = &githttp.BasicAuth{
			Username: config.Auth.Username,
			Password: config.Auth.Password,
		}
		slog.DebugContext(ctx, "Using Git HTTP basic authentication", "username", config.Auth.Username)
	}

	// Commit checkouts need history, branch and tag clones stay shallow
	if config.Commit == "" {
		cloneOptions.Depth = 1
		switch {
		case config.Branch != "":
			cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(config.Branch)
			cloneOptions.SingleBranch = true
		case config.Tag != "":
			cloneOptions.ReferenceName = plumbing.NewTagReferenceName(config.Tag)
			cloneOptions.SingleBranch = true
		}
	}

	// go-git wants separate filesystems for the storer and the worktree
	worktreeFs := &LimitedFs{Fs: memfs.New(), MaxFiles: c.maxFiles, TotalFileSize: c.maxTotalSize}
	storerFs := &LimitedFs{Fs: memfs.New(), MaxFiles: c.maxFiles, TotalFileSize: c.maxTotalSize}
	storerCache := cache.NewObjectLRUDefault()
	storer := filesystem.NewStorage(storerFs, storerCache)

	repo, err := git.CloneContext(ctx, storer, worktreeFs, cloneOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	repoInfo := &RepositoryInfo{
		Repository:       repo,
		RemoteURL:        config.URL,
		storerFilesystem: storerFs,
		objectCache:      storerCache,
	}

	if config.Commit != "" {
		workTree, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("failed to get worktree: %w", err)
		}
		if err := workTree.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(config.Commit)}); err != nil {
			return nil, fmt.Errorf("failed to checkout commit %s: %w", config.Commit, err)
		}
	}

	if err := updateRepositoryInfo(repoInfo); err != nil {
		return nil, fmt.Errorf("failed to update repository info: %w", err)
	}

	slog.DebugContext(ctx, "Cloned repository",
		"url", config.URL,
		"branch", repoInfo.Branch,
		"commit", repoInfo.CommitHash)
	return repoInfo, nil
}

// GetFileContent retrieves the content of a file at HEAD
func (c *defaultGitClient) GetFileContent(repoInfo *RepositoryInfo, path string) ([]byte, error) {
	r, _, err := c.OpenFile(repoInfo, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// OpenFile opens a file at HEAD and returns its reader and size
func (*defaultGitClient) OpenFile(repoInfo *RepositoryInfo, path string) (io.ReadCloser, int64, error) {
	tree, err := headTree(repoInfo)
	if err != nil {
		return nil, 0, err
	}

	file, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, 0, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get file %s: %w", path, err)
	}

	r, err := file.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return r, file.Size, nil
}

// Cleanup releases the in-memory repository
func (*defaultGitClient) Cleanup(ctx context.Context, repoInfo *RepositoryInfo) error {
	if repoInfo == nil || repoInfo.Repository == nil {
		return fmt.Errorf("repository is nil")
	}

	if repoInfo.objectCache != nil {
		repoInfo.objectCache.Clear()
	}
	if worktree, err := repoInfo.Repository.Worktree(); err == nil && worktree.Filesystem != nil {
		_ = util.RemoveAll(worktree.Filesystem, "/")
	}
	if repoInfo.storerFilesystem != nil {
		_ = util.RemoveAll(repoInfo.storerFilesystem, "/")
	}

	slog.DebugContext(ctx, "Released repository", "url", repoInfo.RemoteURL)
	repoInfo.objectCache = nil
	repoInfo.storerFilesystem = nil
	repoInfo.Repository = nil
	return nil
}

func headTree(repoInfo *RepositoryInfo) (*object.Tree, error) {
	if repoInfo == nil || repoInfo.Repository == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	ref, err := repoInfo.Repository.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	commit, err := repoInfo.Repository.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return tree, nil
}

func updateRepositoryInfo(repoInfo *RepositoryInfo) error {
	ref, err := repoInfo.Repository.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	repoInfo.CommitHash = ref.Hash().String()
	if ref.Name().IsBranch() {
		repoInfo.Branch = ref.Name().Short()
	}
	return nil
}
