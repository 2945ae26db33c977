package repository

import (
	"context"
	"testing"
	"time"

	"gameshelf/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		session := &models.Session{
			UserID:  123,
			Email:   "tester@example.com",
			IsAdmin: true,
			Data:    map[string]interface{}{"step": "choosing_game"},
		}

		err := repo.SetSession(ctx, session)
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, 123)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.UserID, got.UserID)
		assert.Equal(t, session.Email, got.Email)
		assert.True(t, got.IsAdmin)
		assert.Equal(t, "choosing_game", got.GetString("step"))
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		session := &models.Session{UserID: 456, Email: "gone@example.com"}
		repo.SetSession(ctx, session)

		err := repo.ClearSession(ctx, 456)
		require.NoError(t, err)

		got, _ := repo.GetSession(ctx, 456)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(789)
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSessionRepository(nil, time.Hour)
		_, err := repo.GetSession(ctx, 123)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
	})
}
