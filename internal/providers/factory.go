package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/filtering"
	"github.com/stacklok/toolhive-content-sync/internal/git"
	"github.com/stacklok/toolhive-content-sync/internal/httpclient"
)

// Factory builds providers from configuration
type Factory interface {
	CreateProvider(ctx context.Context, cfg *config.ProviderConfig) (Provider, error)
}

// FactoryOption configures the default factory
type FactoryOption func(*defaultFactory)

// WithGitClient overrides the Git client shared by git providers
func WithGitClient(client git.Client) FactoryOption {
	return func(f *defaultFactory) {
		f.gitClient = client
	}
}

// WithS3ClientFunc overrides how S3 clients are built
func WithS3ClientFunc(fn func(ctx context.Context, opts S3Options) (S3API, error)) FactoryOption {
	return func(f *defaultFactory) {
		f.newS3Client = fn
	}
}

type defaultFactory struct {
	gitClient   git.Client
	newS3Client func(ctx context.Context, opts S3Options) (S3API, error)
}

// NewFactory creates the default provider factory
func NewFactory(opts ...FactoryOption) Factory {
	f := &defaultFactory{
		gitClient: git.NewDefaultGitClient(),
		newS3Client: func(ctx context.Context, opts S3Options) (S3API, error) {
			return NewS3Client(ctx, opts)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateProvider builds the provider selected by cfg, wrapped in its
// package filter when one is configured
func (f *defaultFactory) CreateProvider(ctx context.Context, cfg *config.ProviderConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider configuration is nil")
	}

	filter, err := filtering.NewPackageFilter(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("provider %s: invalid filter: %w", cfg.Name, err)
	}

	p, err := f.createProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Filtered(p, filter), nil
}

func (f *defaultFactory) createProvider(ctx context.Context, cfg *config.ProviderConfig) (Provider, error) {
	switch cfg.GetType() {
	case config.ProviderTypeFilesystem:
		return NewFilesystemProvider(cfg.Name, cfg.Filesystem.Path, cfg.Filesystem.IndexFile), nil

	case config.ProviderTypeHTTP:
		client := httpclient.NewDefaultClient(httpclient.WithHeaders(cfg.HTTP.Headers))
		return NewHTTPProvider(cfg.Name, cfg.HTTP.Endpoint, cfg.HTTP.IndexPath, client)

	case config.ProviderTypeGit:
		clone := git.CloneConfig{
			URL:    cfg.Git.Repository,
			Branch: cfg.Git.Branch,
			Tag:    cfg.Git.Tag,
			Commit: cfg.Git.Commit,
		}
		if cfg.Git.Username != "" {
			password, err := config.ReadSecretFile(cfg.Git.PasswordFile)
			if err != nil {
				return nil, fmt.Errorf("provider %s: %w", cfg.Name, err)
			}
			clone.Auth = &git.AuthConfig{Username: cfg.Git.Username, Password: password}
		}
		return NewGitProvider(cfg.Name, f.gitClient, clone, cfg.Git.Path), nil

	case config.ProviderTypeS3:
		opts := S3Options{
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
			AccessKeyID:  cfg.S3.AccessKeyID,
		}
		if cfg.S3.SecretKeyFile != "" {
			secret, err := config.ReadSecretFile(cfg.S3.SecretKeyFile)
			if err != nil {
				return nil, fmt.Errorf("provider %s: %w", cfg.Name, err)
			}
			opts.SecretAccessKey = secret
		}
		client, err := f.newS3Client(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", cfg.Name, err)
		}
		return NewS3Provider(cfg.Name, client, cfg.S3.Bucket, cfg.S3.Prefix), nil

	case config.ProviderTypeMemory:
		p := NewMemoryProvider(cfg.Name)
		for _, pkg := range cfg.Memory.Packages {
			p.AddPackage(content.PackageIdentity{
				Name:      pkg.Name,
				Version:   pkg.Version,
				Qualifier: pkg.Qualifier,
				Type:      pkg.Type,
			}, []byte(pkg.Content))
		}
		return p, nil

	default:
		return nil, fmt.Errorf("provider %s: unsupported provider type %q", cfg.Name, cfg.GetType())
	}
}

// BuildAll creates every configured provider keyed by name. Providers
// built before a failure are closed.
func BuildAll(ctx context.Context, factory Factory, cfgs []config.ProviderConfig) (map[string]Provider, error) {
	out := make(map[string]Provider, len(cfgs))
	for i := range cfgs {
		p, err := factory.CreateProvider(ctx, &cfgs[i])
		if err != nil {
			_ = CloseAll(ctx, out)
			return nil, err
		}
		out[p.Name()] = p
	}
	return out, nil
}

// CloseAll closes every provider holding resources
func CloseAll(ctx context.Context, providers map[string]Provider) error {
	var errs []error
	for _, p := range providers {
		if c, ok := p.(Closer); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("provider %s: %w", p.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
