package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stacklok/toolhive-content-sync/internal/blob"
	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/store"
)

// storeCommitter writes blobs to a blob.Store and associations to a store.Store
type storeCommitter struct {
	store store.Store
	blobs blob.Store
}

// NewCommitter creates a Committer backed by st and blobs
func NewCommitter(st store.Store, blobs blob.Store) (Committer, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	return &storeCommitter{store: st, blobs: blobs}, nil
}

type stagedBlob struct {
	key     string
	written bool
}

// Commit stores the content of every fetched addition, then applies the
// membership changes in one transaction. When the transaction fails, blobs
// written by this call that no stored package version references are
// deleted again.
func (c *storeCommitter) Commit(ctx context.Context, repo content.Repository, cs ChangeSet) (CommitResult, error) {
	if cs.IsEmpty() {
		return CommitResult{}, nil
	}

	staged, err := c.stageBlobs(ctx, cs.Additions)
	if err != nil {
		c.cleanup(ctx, cs.Additions, staged)
		return CommitResult{}, &CommitError{RepositoryID: repo.ID, Stage: StageBlobs, Err: err}
	}

	var (
		result     CommitResult
		superseded bool
	)
	err = c.store.InTx(ctx, repo.ID, func(tx store.Tx) error {
		result = CommitResult{}
		superseded = false

		for i, add := range cs.Additions {
			pv, err := c.packageVersion(ctx, tx, add, staged[i])
			if err != nil {
				return err
			}
			if staged[i].written && pv.BlobKey != staged[i].key {
				superseded = true
			}
			if err := tx.InsertAssociation(ctx, pv, add.Providers); err != nil {
				return err
			}
			result.Added++
		}

		for _, upd := range cs.ProvenanceUpdates {
			if err := tx.UpdateAssociationProviders(ctx, upd.Association.PackageVersionID, upd.Providers); err != nil {
				return err
			}
			result.ProvenanceUpdated++
		}

		if len(cs.Removals) > 0 {
			ids := make([]uuid.UUID, 0, len(cs.Removals))
			for _, a := range cs.Removals {
				ids = append(ids, a.PackageVersionID)
			}
			n, err := tx.DeleteAssociations(ctx, ids)
			if err != nil {
				return err
			}
			if n != len(ids) {
				return fmt.Errorf("expected to remove %d associations, removed %d", len(ids), n)
			}
			result.Removed = n
		}
		return nil
	})
	if err != nil {
		c.cleanup(ctx, cs.Additions, staged)
		return CommitResult{}, &CommitError{RepositoryID: repo.ID, Stage: StageTransaction, Err: err}
	}

	for _, s := range staged {
		if s.written {
			result.BlobsWritten++
		}
	}
	// A version committed first with other content keeps it
	if superseded {
		c.cleanup(ctx, cs.Additions, staged)
	}

	slog.Info("Committed repository changes",
		"repository", repo.Name,
		"added", result.Added,
		"removed", result.Removed,
		"provenance_updated", result.ProvenanceUpdated,
		"blobs_written", result.BlobsWritten)

	return result, nil
}

// packageVersion records the version of add. An identity that is already
// stored keeps its content, unless that content is gone from the blob store:
// the version is then pointed at the content staged by this commit.
func (c *storeCommitter) packageVersion(
	ctx context.Context, tx store.Tx, add StagedPackage, staged stagedBlob,
) (content.PackageVersion, error) {
	if add.Reused != nil {
		return *add.Reused, nil
	}

	nv := store.NewPackageVersion{
		Identity: add.Identity,
		Size:     add.Content.Size(),
		Digest:   add.Content.Digest().String(),
		BlobKey:  staged.key,
	}
	pv, err := tx.UpsertPackageVersion(ctx, nv)
	if err != nil || pv.BlobKey == staged.key {
		return pv, err
	}

	if pv.BlobKey != "" {
		exists, err := c.blobs.Exists(ctx, pv.BlobKey)
		if err != nil {
			return content.PackageVersion{}, fmt.Errorf("failed to check blob %s: %w", pv.BlobKey, err)
		}
		if exists {
			return pv, nil
		}
	}

	slog.Warn("Stored package content is missing, replacing it",
		"package", add.Identity.Key(),
		"blob_key", pv.BlobKey,
		"new_blob_key", staged.key)
	return tx.ReplacePackageContent(ctx, pv.ID, nv)
}

// stageBlobs writes the content of fetched additions. The returned slice is
// index-aligned with additions and is valid even when an error is returned.
func (c *storeCommitter) stageBlobs(ctx context.Context, additions []StagedPackage) ([]stagedBlob, error) {
	staged := make([]stagedBlob, len(additions))
	for i, add := range additions {
		if add.Reused != nil {
			staged[i].key = add.Reused.BlobKey
			continue
		}
		if add.Content == nil {
			return staged, fmt.Errorf("package %s has no content", add.Identity)
		}

		key, err := blob.KeyFor(add.Content.Digest())
		if err != nil {
			return staged, fmt.Errorf("package %s: %w", add.Identity, err)
		}
		staged[i].key = key

		exists, err := c.blobs.Exists(ctx, key)
		if err != nil {
			return staged, fmt.Errorf("failed to check blob %s: %w", key, err)
		}
		if exists {
			continue
		}

		if err := c.putBlob(ctx, key, add.Content); err != nil {
			return staged, fmt.Errorf("package %s: %w", add.Identity, err)
		}
		staged[i].written = true
	}
	return staged, nil
}

func (c *storeCommitter) putBlob(ctx context.Context, key string, data Content) error {
	r, err := data.Open()
	if err != nil {
		return fmt.Errorf("failed to open spooled content: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()
	if err := c.blobs.Put(ctx, key, r, data.Size()); err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

// cleanup deletes blobs written by this commit unless a stored package
// version already points at them, which happens when another repository
// committed the same content in the meantime.
func (c *storeCommitter) cleanup(ctx context.Context, additions []StagedPackage, staged []stagedBlob) {
	ctx = context.WithoutCancel(ctx)

	var ids []content.PackageIdentity
	for i, s := range staged {
		if s.written {
			ids = append(ids, additions[i].Identity)
		}
	}
	if len(ids) == 0 {
		return
	}

	referenced := make(map[string]bool)
	stored, err := c.store.FindPackageVersions(ctx, ids)
	if err != nil {
		slog.Warn("Skipping blob cleanup, failed to look up package versions", "error", err)
		return
	}
	for _, pv := range stored {
		referenced[pv.BlobKey] = true
	}

	for _, s := range staged {
		if !s.written || referenced[s.key] {
			continue
		}
		if err := c.blobs.Delete(ctx, s.key); err != nil && !errors.Is(err, blob.ErrNotFound) {
			slog.Warn("Failed to delete staged blob", "blob_key", s.key, "error", err)
		}
	}
}
