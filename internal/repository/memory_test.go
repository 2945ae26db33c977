package repository

import (
	"context"
	"testing"
	"time"

	"gameshelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		session := &models.Session{UserID: 1, Email: "tester@example.com"}
		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "tester@example.com", got.Email)
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetSession(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		repo.SetSession(ctx, &models.Session{UserID: 2})
		require.NoError(t, repo.ClearSession(ctx, 2))

		got, _ := repo.GetSession(ctx, 2)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(3)
		limit := 2
		window := 50 * time.Millisecond

		allowed, err := repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, _ = repo.CheckRateLimit(ctx, userID, limit, window)
		assert.True(t, allowed)

		allowed, _ = repo.CheckRateLimit(ctx, userID, limit, window)
		assert.False(t, allowed)

		time.Sleep(window + 10*time.Millisecond)

		allowed, _ = repo.CheckRateLimit(ctx, userID, limit, window)
		assert.True(t, allowed)
	})
}
