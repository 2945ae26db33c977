package service

import (
	"context"
	"io"
	"testing"

	"gameshelf/internal/config"
	"gameshelf/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserService(store *mockStore, admins ...string) *UserService {
	logger := zerolog.New(io.Discard)
	cfg := &config.Config{Admins: admins}
	return NewUserService(store, cfg, &logger)
}

func TestIsAdmin(t *testing.T) {
	svc := newUserService(new(mockStore), "Admin@Example.com")

	assert.True(t, svc.IsAdmin("admin@example.com"))
	assert.True(t, svc.IsAdmin("ADMIN@EXAMPLE.COM"))
	assert.False(t, svc.IsAdmin("user@example.com"))
}

func TestEnsureUser(t *testing.T) {
	store := new(mockStore)
	svc := newUserService(store, "admin@example.com")
	ctx := context.Background()

	t.Run("AdminFromConfig", func(t *testing.T) {
		store.On("CreateOrUpdateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "admin@example.com" && u.IsAdmin
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 1
		}).Return(nil).Once()

		user, err := svc.EnsureUser(ctx, "admin@example.com", "Boss")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.True(t, user.IsAdmin)
	})

	t.Run("RegularUser", func(t *testing.T) {
		store.On("CreateOrUpdateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "user@example.com" && !u.IsAdmin
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 2
		}).Return(nil).Once()

		user, err := svc.EnsureUser(ctx, "user@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), user.ID)
		assert.False(t, user.IsAdmin)
	})

	store.AssertExpectations(t)
}

func TestSetUserAdminPassthrough(t *testing.T) {
	store := new(mockStore)
	svc := newUserService(store)
	ctx := context.Background()

	store.On("SetUserAdmin", ctx, int64(5), true).Return(nil).Once()
	require.NoError(t, svc.SetUserAdmin(ctx, 5, true))
	store.AssertExpectations(t)
}
