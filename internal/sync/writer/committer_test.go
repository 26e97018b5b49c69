package writer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-content-sync/internal/blob"
	blobmocks "github.com/stacklok/toolhive-content-sync/internal/blob/mocks"
	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	"github.com/stacklok/toolhive-content-sync/internal/store/memory"
	storemocks "github.com/stacklok/toolhive-content-sync/internal/store/mocks"
)

var (
	pkgOld = content.PackageIdentity{Name: "old", Version: "1.0.0", Type: "npm"}
	pkgNew = content.PackageIdentity{Name: "new", Version: "1.0.0", Type: "npm"}
	pkgKep = content.PackageIdentity{Name: "kept", Version: "1.0.0", Type: "npm"}
)

type bytesContent []byte

func (b bytesContent) Size() int64           { return int64(len(b)) }
func (b bytesContent) Digest() digest.Digest { return digest.FromBytes(b) }
func (b bytesContent) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

func setupRepo(t *testing.T, st *memory.Store, existing ...content.PackageIdentity) content.Repository {
	t.Helper()
	ctx := context.Background()

	repos, err := st.UpsertRepositories(ctx, []store.RepositorySpec{{Name: "base", Providers: []string{"a", "b"}}})
	require.NoError(t, err)
	repo := repos[0]

	require.NoError(t, st.InTx(ctx, repo.ID, func(tx store.Tx) error {
		for _, id := range existing {
			pv, err := tx.UpsertPackageVersion(ctx, store.NewPackageVersion{Identity: id})
			if err != nil {
				return err
			}
			if err := tx.InsertAssociation(ctx, pv, []string{"a"}); err != nil {
				return err
			}
		}
		return nil
	}))
	return repo
}

func associationFor(t *testing.T, st *memory.Store, repoID uuid.UUID, id content.PackageIdentity) content.Association {
	t.Helper()
	assocs, err := st.ListAssociations(context.Background(), repoID)
	require.NoError(t, err)
	for _, a := range assocs {
		if a.Identity == id {
			return a
		}
	}
	t.Fatalf("no association for %s", id)
	return content.Association{}
}

func TestNewCommitter(t *testing.T) {
	t.Parallel()

	blobs, err := blob.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	_, err = NewCommitter(nil, blobs)
	require.ErrorContains(t, err, "store is required")

	_, err = NewCommitter(memory.New(), nil)
	require.ErrorContains(t, err, "blob store is required")
}

func TestCommit_EmptyChangeSetWritesNothing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	// No expectations: any store or blob call fails the test
	c, err := NewCommitter(storemocks.NewMockStore(ctrl), blobmocks.NewMockStore(ctrl))
	require.NoError(t, err)

	result, err := c.Commit(context.Background(), content.Repository{ID: uuid.New()}, ChangeSet{})
	require.NoError(t, err)
	assert.Equal(t, CommitResult{}, result)
}

func TestCommit_AppliesChangeSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.New()
	blobs, err := blob.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	repo := setupRepo(t, st, pkgOld, pkgKep)

	c, err := NewCommitter(st, blobs)
	require.NoError(t, err)

	data := bytesContent("hello world")
	result, err := c.Commit(ctx, repo, ChangeSet{
		Additions: []StagedPackage{{Identity: pkgNew, Providers: []string{"a", "b"}, Content: data}},
		Removals:  []content.Association{associationFor(t, st, repo.ID, pkgOld)},
		ProvenanceUpdates: []ProvenanceUpdate{{
			Association: associationFor(t, st, repo.ID, pkgKep),
			Providers:   []string{"a", "b"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Added: 1, Removed: 1, ProvenanceUpdated: 1, BlobsWritten: 1}, result)

	assocs, err := st.ListAssociations(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, assocs, 2)
	assert.Equal(t, pkgKep, assocs[0].Identity)
	assert.Equal(t, []string{"a", "b"}, assocs[0].Providers)
	assert.Equal(t, pkgNew, assocs[1].Identity)
	assert.Equal(t, []string{"a", "b"}, assocs[1].Providers)

	found, err := st.FindPackageVersions(ctx, []content.PackageIdentity{pkgNew, pkgOld})
	require.NoError(t, err)
	require.Len(t, found, 2, "removed package versions are kept")
	pv := found[pkgNew]
	assert.Equal(t, data.Digest().String(), pv.Digest)
	assert.Equal(t, data.Size(), pv.Size)

	r, err := blobs.Open(ctx, pv.BlobKey)
	require.NoError(t, err)
	defer r.Close()
	stored, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte(data), stored)
}

func TestCommit_ReusedVersionWritesNoBlob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	st := memory.New()
	repo := setupRepo(t, st)

	reused := content.PackageVersion{
		ID: uuid.New(), PackageIdentity: pkgNew, BlobKey: "sha256/ab/abc",
	}
	mockTx := storemocks.NewMockTx(ctrl)
	mockTx.EXPECT().InsertAssociation(gomock.Any(), reused, []string{"a"}).Return(nil)

	mockStore := storemocks.NewMockStore(ctrl)
	mockStore.EXPECT().InTx(gomock.Any(), repo.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, fn func(store.Tx) error) error {
			return fn(mockTx)
		})

	c, err := NewCommitter(mockStore, blobmocks.NewMockStore(ctrl))
	require.NoError(t, err)

	result, err := c.Commit(ctx, repo, ChangeSet{
		Additions: []StagedPackage{{Identity: pkgNew, Providers: []string{"a"}, Reused: &reused}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Zero(t, result.BlobsWritten)
}

func TestCommit_TransactionFailureRemovesNewBlobs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs, err := blob.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	// Unknown repositories make the transaction fail
	c, err := NewCommitter(memory.New(), blobs)
	require.NoError(t, err)

	data := bytesContent("payload")
	repoID := uuid.New()
	_, err = c.Commit(ctx, content.Repository{ID: repoID, Name: "gone"}, ChangeSet{
		Additions: []StagedPackage{{Identity: pkgNew, Content: data}},
	})
	require.Error(t, err)

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, repoID, commitErr.RepositoryID)
	assert.Equal(t, StageTransaction, commitErr.Stage)
	assert.ErrorIs(t, err, store.ErrNotFound)

	key, err := blob.KeyFor(data.Digest())
	require.NoError(t, err)
	exists, err := blobs.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCommit_CleanupKeepsReferencedBlobs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	data := bytesContent("shared")
	key, err := blob.KeyFor(data.Digest())
	require.NoError(t, err)

	blobs := blobmocks.NewMockStore(ctrl)
	blobs.EXPECT().Exists(gomock.Any(), key).Return(false, nil)
	blobs.EXPECT().Put(gomock.Any(), key, gomock.Any(), data.Size()).Return(nil)
	// No Delete: another repository committed the same content meanwhile

	mockStore := storemocks.NewMockStore(ctrl)
	mockStore.EXPECT().InTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("serialization failure"))
	mockStore.EXPECT().FindPackageVersions(gomock.Any(), []content.PackageIdentity{pkgNew}).Return(
		map[content.PackageIdentity]content.PackageVersion{pkgNew: {PackageIdentity: pkgNew, BlobKey: key}}, nil)

	c, err := NewCommitter(mockStore, blobs)
	require.NoError(t, err)

	_, err = c.Commit(ctx, content.Repository{ID: uuid.New()}, ChangeSet{
		Additions: []StagedPackage{{Identity: pkgNew, Content: data}},
	})
	require.Error(t, err)
}

func TestCommit_BlobFailureSkipsTransaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	data := bytesContent("payload")
	other := bytesContent("other payload")

	blobs := blobmocks.NewMockStore(ctrl)
	gomock.InOrder(
		blobs.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil),
		blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), data.Size()).Return(nil),
		blobs.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil),
		blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), other.Size()).Return(errors.New("disk full")),
	)
	firstKey, err := blob.KeyFor(data.Digest())
	require.NoError(t, err)
	blobs.EXPECT().Delete(gomock.Any(), firstKey).Return(nil)

	// InTx must not be called
	mockStore := storemocks.NewMockStore(ctrl)
	mockStore.EXPECT().FindPackageVersions(gomock.Any(), gomock.Any()).Return(
		map[content.PackageIdentity]content.PackageVersion{}, nil)

	c, err := NewCommitter(mockStore, blobs)
	require.NoError(t, err)

	_, err = c.Commit(ctx, content.Repository{ID: uuid.New()}, ChangeSet{
		Additions: []StagedPackage{
			{Identity: pkgNew, Content: data},
			{Identity: pkgKep, Content: other},
		},
	})
	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, StageBlobs, commitErr.Stage)
	assert.ErrorContains(t, err, "disk full")
}

func setupRepos(t *testing.T, st *memory.Store, names ...string) []content.Repository {
	t.Helper()
	specs := make([]store.RepositorySpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, store.RepositorySpec{Name: name, Providers: []string{"a", "b"}})
	}
	repos, err := st.UpsertRepositories(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, repos, len(names))
	return repos
}

func readBlob(t *testing.T, blobs blob.Store, key string) []byte {
	t.Helper()
	r, err := blobs.Open(context.Background(), key)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func TestCommit_SharedVersionContent(t *testing.T) {
	t.Parallel()

	first := bytesContent("one")
	second := bytesContent("two-different")

	tests := []struct {
		name           string
		deleteFirst    bool
		wantContent    bytesContent
		wantOrphanGone bool
	}{
		{
			name:           "stored content wins while it exists",
			wantContent:    first,
			wantOrphanGone: true,
		},
		{
			name:        "missing stored content is replaced",
			deleteFirst: true,
			wantContent: second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			st := memory.New()
			blobs, err := blob.NewFilesystemStore(t.TempDir())
			require.NoError(t, err)
			repos := setupRepos(t, st, "r1", "r2")

			c, err := NewCommitter(st, blobs)
			require.NoError(t, err)

			_, err = c.Commit(ctx, repos[0], ChangeSet{
				Additions: []StagedPackage{{Identity: pkgNew, Providers: []string{"a"}, Content: first}},
			})
			require.NoError(t, err)

			firstKey, err := blob.KeyFor(first.Digest())
			require.NoError(t, err)
			if tt.deleteFirst {
				require.NoError(t, blobs.Delete(ctx, firstKey))
			}

			result, err := c.Commit(ctx, repos[1], ChangeSet{
				Additions: []StagedPackage{{Identity: pkgNew, Providers: []string{"b"}, Content: second}},
			})
			require.NoError(t, err)
			assert.Equal(t, 1, result.Added)

			found, err := st.FindPackageVersions(ctx, []content.PackageIdentity{pkgNew})
			require.NoError(t, err)
			pv := found[pkgNew]
			assert.Equal(t, tt.wantContent.Digest().String(), pv.Digest)
			assert.Equal(t, tt.wantContent.Size(), pv.Size)
			assert.Equal(t, []byte(tt.wantContent), readBlob(t, blobs, pv.BlobKey))

			secondKey, err := blob.KeyFor(second.Digest())
			require.NoError(t, err)
			exists, err := blobs.Exists(ctx, secondKey)
			require.NoError(t, err)
			assert.Equal(t, !tt.wantOrphanGone, exists)
		})
	}
}

func TestCommit_EmptyStoredBlobKeyIsReplaced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.New()
	blobs, err := blob.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	repo := setupRepo(t, st, pkgOld)

	c, err := NewCommitter(st, blobs)
	require.NoError(t, err)

	data := bytesContent("restored")
	_, err = c.Commit(ctx, repo, ChangeSet{
		Removals: []content.Association{associationFor(t, st, repo.ID, pkgOld)},
	})
	require.NoError(t, err)
	_, err = c.Commit(ctx, repo, ChangeSet{
		Additions: []StagedPackage{{Identity: pkgOld, Providers: []string{"a"}, Content: data}},
	})
	require.NoError(t, err)

	found, err := st.FindPackageVersions(ctx, []content.PackageIdentity{pkgOld})
	require.NoError(t, err)
	assert.Equal(t, []byte(data), readBlob(t, blobs, found[pkgOld].BlobKey))
}
