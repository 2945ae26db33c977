package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"gameshelf/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenSessionRepo always errors; simulates a dead redis.
type brokenSessionRepo struct {
	calls int
}

func (b *brokenSessionRepo) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	b.calls++
	return nil, errors.New("connection refused")
}

func (b *brokenSessionRepo) SetSession(ctx context.Context, session *models.Session) error {
	b.calls++
	return errors.New("connection refused")
}

func (b *brokenSessionRepo) ClearSession(ctx context.Context, userID int64) error {
	b.calls++
	return errors.New("connection refused")
}

func (b *brokenSessionRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	b.calls++
	return false, errors.New("connection refused")
}

func TestFailoverSessionRepository(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("HealthyPrimary", func(t *testing.T) {
		primary := NewMemorySessionRepository(time.Hour)
		fallback := NewMemorySessionRepository(time.Hour)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		session := &models.Session{UserID: 1, Email: "tester@example.com"}
		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)

		// Written to the primary, not the fallback.
		fromPrimary, _ := primary.GetSession(ctx, 1)
		assert.NotNil(t, fromPrimary)
		fromFallback, _ := fallback.GetSession(ctx, 1)
		assert.Nil(t, fromFallback)
	})

	t.Run("FallsBackOnError", func(t *testing.T) {
		primary := &brokenSessionRepo{}
		fallback := NewMemorySessionRepository(time.Hour)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		session := &models.Session{UserID: 2, Email: "two@example.com"}
		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, 2)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "two@example.com", got.Email)
	})

	t.Run("PrimaryNotRetriedWithinCooldown", func(t *testing.T) {
		primary := &brokenSessionRepo{}
		fallback := NewMemorySessionRepository(time.Hour)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		repo.GetSession(ctx, 3)
		callsAfterFirst := primary.calls

		repo.GetSession(ctx, 3)
		repo.GetSession(ctx, 3)
		assert.Equal(t, callsAfterFirst, primary.calls)
	})

	t.Run("RateLimitFallsBack", func(t *testing.T) {
		primary := &brokenSessionRepo{}
		fallback := NewMemorySessionRepository(time.Hour)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		allowed, err := repo.CheckRateLimit(ctx, 4, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, 4, 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
