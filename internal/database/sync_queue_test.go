package database

import (
	"context"
	"testing"
	"time"

	"gameshelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncQueueLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{
		TaskType: "upsert",
		RentalID: 1,
		Payload:  `{"rental_id":1}`,
		Status:   "pending",
	}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	assert.NotZero(t, task.ID)

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "upsert", pending[0].TaskType)

	t.Run("RetryIncrementsCount", func(t *testing.T) {
		next := time.Now().Add(time.Hour)
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "boom", &next))

		// The retry is scheduled in the future, so it is not pending yet.
		pending, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("DueRetryIsPending", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "boom again", &past))

		pending, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, 2, pending[0].RetryCount)
	})

	t.Run("Completed", func(t *testing.T) {
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil))

		pending, err := db.GetPendingSyncTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestGetFailedSyncTasks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "update_status", RentalID: 2, Payload: `{}`, Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "failed", "gave up", nil))

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "gave up", *failed[0].LastError)
}
