package git

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
)

// CloneConfig selects what to clone. At most one of Branch, Tag and Commit
// is set; the remote default branch is used when none is.
type CloneConfig struct {
	URL    string
	Branch string
	Tag    string
	Commit string
	Auth   *AuthConfig
}

// AuthConfig holds HTTP basic credentials
type AuthConfig struct {
	Username string
	Password string
}

// RepositoryInfo describes a cloned repository
type RepositoryInfo struct {
	Repository *git.Repository
	RemoteURL  string

	// Branch is the checked out branch, empty for detached checkouts
	Branch string

	// CommitHash is the resolved HEAD commit
	CommitHash string

	storerFilesystem billy.Filesystem
	objectCache      cache.Object
}
