package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/status"
	"github.com/stacklok/toolhive-content-sync/internal/store"
	"github.com/stacklok/toolhive-content-sync/internal/store/memory"
	pkgsync "github.com/stacklok/toolhive-content-sync/internal/sync"
	coordmocks "github.com/stacklok/toolhive-content-sync/internal/sync/coordinator/mocks"
	"github.com/stacklok/toolhive-content-sync/internal/sync/state"
	statemocks "github.com/stacklok/toolhive-content-sync/internal/sync/state/mocks"
)

type testHarness struct {
	svc       ContentService
	store     *memory.Store
	statusSvc *statemocks.MockRepositoryStateService
	coord     *coordmocks.MockCoordinator
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := memory.New()
	statusSvc := statemocks.NewMockRepositoryStateService(ctrl)
	coord := coordmocks.NewMockCoordinator(ctrl)

	_, err := st.UpsertRepositories(context.Background(), []store.RepositorySpec{
		{Name: "base", Description: "base packages", Providers: []string{"mirror"}, SyncInterval: 30 * time.Minute},
		{Name: "extras", Providers: []string{"local"}},
	})
	require.NoError(t, err)

	svc, err := NewContentService(st, statusSvc, coord)
	require.NoError(t, err)

	return &testHarness{svc: svc, store: st, statusSvc: statusSvc, coord: coord}
}

func (h *testHarness) addPackages(t *testing.T, repo string, ids ...content.PackageIdentity) {
	t.Helper()

	ctx := context.Background()
	r, err := h.store.GetRepositoryByName(ctx, repo)
	require.NoError(t, err)

	require.NoError(t, h.store.InTx(ctx, r.ID, func(tx store.Tx) error {
		for _, id := range ids {
			pv, err := tx.UpsertPackageVersion(ctx, store.NewPackageVersion{
				Identity: id,
				Size:     1,
				Digest:   "sha256:" + id.Key(),
				BlobKey:  id.Key(),
			})
			if err != nil {
				return err
			}
			if err := tx.InsertAssociation(ctx, pv, []string{"mirror"}); err != nil {
				return err
			}
		}
		return nil
	}))
}

func pkg(name, version string) content.PackageIdentity {
	return content.PackageIdentity{Name: name, Version: version, Type: "rpm"}
}

func TestNewContentService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	statusSvc := statemocks.NewMockRepositoryStateService(ctrl)
	coord := coordmocks.NewMockCoordinator(ctrl)

	_, err := NewContentService(nil, statusSvc, coord)
	require.Error(t, err)
	_, err = NewContentService(memory.New(), nil, coord)
	require.Error(t, err)
	_, err = NewContentService(memory.New(), statusSvc, nil)
	require.Error(t, err)
}

func TestContentService_ListRepositories(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.statusSvc.EXPECT().ListSyncStatuses(gomock.Any()).Return(map[string]*status.SyncStatus{
		"base": {Phase: status.SyncPhaseComplete, PackageCount: 3},
	}, nil)

	repos, err := h.svc.ListRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.Equal(t, "base", repos[0].Name)
	assert.Equal(t, "base packages", repos[0].Description)
	assert.Equal(t, "30m0s", repos[0].SyncInterval)
	require.NotNil(t, repos[0].SyncStatus)
	assert.Equal(t, 3, repos[0].SyncStatus.PackageCount)

	assert.Equal(t, "extras", repos[1].Name)
	assert.Empty(t, repos[1].SyncInterval)
	assert.Nil(t, repos[1].SyncStatus)
}

func TestContentService_ListRepositories_StatusError(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.statusSvc.EXPECT().ListSyncStatuses(gomock.Any()).Return(nil, errors.New("disk gone"))

	_, err := h.svc.ListRepositories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestContentService_GetRepository(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.statusSvc.EXPECT().GetSyncStatus(gomock.Any(), "extras").Return(nil, state.ErrRepositoryNotFound)

	repo, err := h.svc.GetRepository(context.Background(), "extras")
	require.NoError(t, err)
	assert.Equal(t, "extras", repo.Name)
	assert.Nil(t, repo.SyncStatus)

	_, err = h.svc.GetRepository(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRepositoryNotFound)
}

func TestContentService_ListPackages(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.addPackages(t, "base",
		pkg("kernel", "1.10.0"),
		pkg("kernel", "1.9.0"),
		pkg("kernel", "2.0.0-rc.1"),
		pkg("kernel", "latest"),
		pkg("bash", "5.2.0"),
	)

	tests := []struct {
		name      string
		opts      []Option
		wantTotal int
		want      []string
		wantErr   error
	}{
		{
			name:      "semver ordering",
			wantTotal: 5,
			want:      []string{"bash@5.2.0", "kernel@1.9.0", "kernel@1.10.0", "kernel@2.0.0-rc.1", "kernel@latest"},
		},
		{
			name:      "name filter",
			opts:      []Option{WithName("bash")},
			wantTotal: 1,
			want:      []string{"bash@5.2.0"},
		},
		{
			name:      "constraint filter",
			opts:      []Option{WithName("kernel"), WithConstraint(">= 1.9, < 2")},
			wantTotal: 2,
			want:      []string{"kernel@1.9.0", "kernel@1.10.0"},
		},
		{
			name:      "pagination",
			opts:      []Option{WithLimit(2), WithOffset(1)},
			wantTotal: 5,
			want:      []string{"kernel@1.9.0", "kernel@1.10.0"},
		},
		{
			name:      "offset past end",
			opts:      []Option{WithOffset(10)},
			wantTotal: 5,
			want:      []string{},
		},
		{
			name:    "invalid limit",
			opts:    []Option{WithLimit(MaxPageSize + 1)},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "invalid constraint",
			opts:    []Option{WithConstraint("banana")},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			list, err := h.svc.ListPackages(context.Background(), "base", tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, list.Total)

			got := make([]string, 0, len(list.Packages))
			for _, p := range list.Packages {
				got = append(got, p.Name+"@"+p.Version)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentService_ListPackages_UnknownRepository(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	_, err := h.svc.ListPackages(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRepositoryNotFound)
}

func TestContentService_GetSyncStatus(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.statusSvc.EXPECT().GetSyncStatus(gomock.Any(), "base").
		Return(&status.SyncStatus{Phase: status.SyncPhaseSyncing}, nil)
	h.statusSvc.EXPECT().GetSyncStatus(gomock.Any(), "missing").
		Return(nil, state.ErrRepositoryNotFound)

	st, err := h.svc.GetSyncStatus(context.Background(), "base")
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseSyncing, st.Phase)

	_, err = h.svc.GetSyncStatus(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRepositoryNotFound)
}

func TestContentService_SyncNow(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	want := &pkgsync.Result{Status: pkgsync.StatusSucceeded, Added: 2}
	h.coord.EXPECT().SyncNow(gomock.Any(), "base").Return(want, nil)
	h.coord.EXPECT().SyncNow(gomock.Any(), "extras").Return(nil, pkgsync.ErrAlreadyInProgress)

	result, err := h.svc.SyncNow(context.Background(), "base")
	require.NoError(t, err)
	assert.Equal(t, want, result)

	_, err = h.svc.SyncNow(context.Background(), "extras")
	require.ErrorIs(t, err, ErrAlreadyInProgress)
}

func TestContentService_CheckReadiness(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	failing := errors.New("database unreachable")
	svc, err := NewContentService(memory.New(),
		statemocks.NewMockRepositoryStateService(ctrl),
		coordmocks.NewMockCoordinator(ctrl),
		WithReadinessCheck(func(context.Context) error { return failing }),
	)
	require.NoError(t, err)
	require.ErrorIs(t, svc.CheckReadiness(context.Background()), failing)

	h := newTestHarness(t)
	require.NoError(t, h.svc.CheckReadiness(context.Background()))
}
