// Package service provides the business logic behind the content sync API
package service

import (
	"context"
	"errors"
	"time"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/status"
	pkgsync "github.com/stacklok/toolhive-content-sync/internal/sync"
)

var (
	// ErrRepositoryNotFound is returned when a repository is not configured
	ErrRepositoryNotFound = pkgsync.ErrRepositoryNotFound
	// ErrAlreadyInProgress is returned when a sync of the repository is already running
	ErrAlreadyInProgress = pkgsync.ErrAlreadyInProgress
	// ErrInvalidArgument is returned when a request option is malformed
	ErrInvalidArgument = errors.New("invalid argument")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go ContentService

// ContentService defines the read and trigger operations exposed over HTTP
type ContentService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListRepositories returns every configured repository with its sync status
	ListRepositories(ctx context.Context) ([]RepositoryInfo, error)

	// GetRepository returns a single repository by name
	GetRepository(ctx context.Context, name string) (*RepositoryInfo, error)

	// ListPackages returns the package versions held by a repository
	ListPackages(ctx context.Context, name string, opts ...Option) (*PackageList, error)

	// GetSyncStatus returns the current sync status of a repository
	GetSyncStatus(ctx context.Context, name string) (*status.SyncStatus, error)

	// SyncNow runs a sync of the repository and waits for its result
	SyncNow(ctx context.Context, name string) (*pkgsync.Result, error)
}

// RepositoryInfo is a repository as reported by the API
type RepositoryInfo struct {
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Providers    []string           `json:"providers"`
	SyncInterval string             `json:"syncInterval,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	SyncStatus   *status.SyncStatus `json:"syncStatus,omitempty"`
}

// PackageList is one page of package versions
type PackageList struct {
	Packages []content.PackageVersion `json:"packages"`
	Total    int                      `json:"total"`
	Limit    int                      `json:"limit"`
	Offset   int                      `json:"offset"`
}

func repositoryInfo(repo content.Repository, st *status.SyncStatus) RepositoryInfo {
	info := RepositoryInfo{
		Name:        repo.Name,
		Description: repo.Description,
		Providers:   repo.Providers,
		CreatedAt:   repo.CreatedAt,
		UpdatedAt:   repo.UpdatedAt,
		SyncStatus:  st,
	}
	if info.Providers == nil {
		info.Providers = []string{}
	}
	if repo.SyncInterval > 0 {
		info.SyncInterval = repo.SyncInterval.String()
	}
	return info
}
