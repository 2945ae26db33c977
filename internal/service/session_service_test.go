package service

import (
	"context"
	"io"
	"testing"
	"time"

	"gameshelf/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessionRepo keeps sessions in a plain map; enough for service tests.
type stubSessionRepo struct {
	sessions map[int64]*models.Session
	calls    int
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[int64]*models.Session)}
}

func (s *stubSessionRepo) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	return s.sessions[userID], nil
}

func (s *stubSessionRepo) SetSession(ctx context.Context, session *models.Session) error {
	s.sessions[session.UserID] = session
	return nil
}

func (s *stubSessionRepo) ClearSession(ctx context.Context, userID int64) error {
	delete(s.sessions, userID)
	return nil
}

func (s *stubSessionRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	s.calls++
	return s.calls <= limit, nil
}

func newSessionService(repo *stubSessionRepo) *SessionService {
	logger := zerolog.New(io.Discard)
	return NewSessionService(repo, &logger)
}

func TestEnsureSession(t *testing.T) {
	repo := newStubSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	t.Run("CreatesFresh", func(t *testing.T) {
		session, err := svc.EnsureSession(ctx, 1, "tester@example.com", false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), session.UserID)
		assert.Equal(t, "tester@example.com", session.Email)
		assert.False(t, session.IsAdmin)
		assert.False(t, session.IssuedAt.IsZero())
		assert.NotNil(t, repo.sessions[1])
	})

	t.Run("ReusesStored", func(t *testing.T) {
		first, err := svc.EnsureSession(ctx, 2, "two@example.com", false)
		require.NoError(t, err)
		first.Data["step"] = "choosing"

		again, err := svc.EnsureSession(ctx, 2, "two@example.com", false)
		require.NoError(t, err)
		assert.Equal(t, "choosing", again.GetString("step"))
	})

	t.Run("AdminFlagFollowsConfig", func(t *testing.T) {
		_, err := svc.EnsureSession(ctx, 3, "promoted@example.com", false)
		require.NoError(t, err)

		session, err := svc.EnsureSession(ctx, 3, "promoted@example.com", true)
		require.NoError(t, err)
		assert.True(t, session.IsAdmin)
	})
}

func TestUpdateSessionData(t *testing.T) {
	repo := newStubSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	require.NoError(t, svc.UpdateSessionData(ctx, 5, "game_id", int64(7)))

	session, err := svc.GetSession(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, int64(7), session.GetInt64("game_id"))
}

func TestClearSession(t *testing.T) {
	repo := newStubSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	_, err := svc.EnsureSession(ctx, 9, "nine@example.com", false)
	require.NoError(t, err)

	require.NoError(t, svc.ClearSession(ctx, 9))

	session, err := svc.GetSession(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestSessionRateLimitPassthrough(t *testing.T) {
	repo := newStubSessionRepo()
	svc := newSessionService(repo)
	ctx := context.Background()

	allowed, err := svc.CheckRateLimit(ctx, 1, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	svc.CheckRateLimit(ctx, 1, 2, time.Minute)

	allowed, err = svc.CheckRateLimit(ctx, 1, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
