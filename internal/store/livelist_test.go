package store

import (
	"context"
	"testing"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct {
	Repository
}

func (failingRepo) List(ctx context.Context) ([]models.FisheryApplication, error) {
	return nil, errors.NewQueryExecutionFailedError("list", assert.AnError)
}

func TestLiveList_SnapshotIsACopy(t *testing.T) {
	repo := NewMemoryRepository(staticFixtures{*sampleApplication()})
	live := NewLiveList(repo, repo.Changes(), logger.NewNoOpLogger())
	require.NoError(t, live.Refresh(context.Background()))

	apps, _ := live.Snapshot()
	apps[0].Status = models.StatusRejected

	again, _ := live.Snapshot()
	assert.NotEqual(t, models.StatusRejected, again[0].Status)
}

func TestLiveList_FailedLoadStaysUnloaded(t *testing.T) {
	live := NewLiveList(failingRepo{}, NewBroadcaster(), logger.NewNoOpLogger())

	err := live.Refresh(context.Background())
	require.Error(t, err)

	apps, loaded := live.Snapshot()
	assert.False(t, loaded)
	assert.Empty(t, apps)
}
