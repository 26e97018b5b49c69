// Package status provides sync status tracking and persistence for repositories.
package status

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

// StatusFileName is the file holding a repository's status inside its directory
const StatusFileName = "status.yaml"

// ErrInvalidRepositoryName is returned for names that cannot be used as a
// single directory name
var ErrInvalidRepositoryName = errors.New("invalid repository name")

// StatusPersistence stores one SyncStatus per repository.
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus replaces the stored status of a repository
	SaveStatus(ctx context.Context, repositoryName string, status *SyncStatus) error

	// LoadStatus returns the stored status of a repository, or an empty
	// SyncStatus when the repository has never been synced
	LoadStatus(ctx context.Context, repositoryName string) (*SyncStatus, error)

	// ListRepositories returns the sorted names of repositories with a stored status
	ListRepositories(ctx context.Context) ([]string, error)

	// RemoveStatus deletes the stored status of a repository. Removing a
	// status that does not exist is not an error.
	RemoveStatus(ctx context.Context, repositoryName string) error
}

// fileStatusPersistence lays statuses out as <root>/<repository>/status.yaml
type fileStatusPersistence struct {
	root string
}

// NewFileStatusPersistence creates a StatusPersistence rooted at dir
func NewFileStatusPersistence(dir string) StatusPersistence {
	return &fileStatusPersistence{root: dir}
}

func (f *fileStatusPersistence) repoDir(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepositoryName, name)
	}
	return filepath.Join(f.root, name), nil
}

// SaveStatus writes to a temporary file in the repository directory, syncs
// it, then renames it over the status file so readers never see a partial write
func (f *fileStatusPersistence) SaveStatus(_ context.Context, repositoryName string, status *SyncStatus) error {
	dir, err := f.repoDir(repositoryName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("repository %s: failed to create status directory: %w", repositoryName, err)
	}

	data, err := yaml.Marshal(status)
	if err != nil {
		return fmt.Errorf("repository %s: failed to encode status: %w", repositoryName, err)
	}

	tmp, err := os.CreateTemp(dir, "."+StatusFileName+"-*")
	if err != nil {
		return fmt.Errorf("repository %s: failed to create temporary status file: %w", repositoryName, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// Gone after a successful rename
		_ = os.Remove(tmpPath)
	}()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("repository %s: failed to write status: %w", repositoryName, err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, StatusFileName)); err != nil {
		return fmt.Errorf("repository %s: failed to replace status file: %w", repositoryName, err)
	}
	return nil
}

func (f *fileStatusPersistence) LoadStatus(_ context.Context, repositoryName string) (*SyncStatus, error) {
	dir, err := f.repoDir(repositoryName)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- dir is a single validated path element below root
	data, err := os.ReadFile(filepath.Join(dir, StatusFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return &SyncStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository %s: failed to read status: %w", repositoryName, err)
	}

	var status SyncStatus
	if err := yaml.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("repository %s: failed to decode status: %w", repositoryName, err)
	}
	return &status, nil
}

func (f *fileStatusPersistence) ListRepositories(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(f.root, entry.Name(), StatusFileName)); err == nil {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func (f *fileStatusPersistence) RemoveStatus(_ context.Context, repositoryName string) error {
	dir, err := f.repoDir(repositoryName)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("repository %s: failed to remove status: %w", repositoryName, err)
	}
	return nil
}
