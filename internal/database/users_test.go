package database

import (
	"context"
	"testing"

	"gameshelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "alex@example.com", DisplayName: "Alex", IsAdmin: true}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsAdmin)

	firstID := user.ID

	// A second upsert with the same email keeps the row and the admin flag.
	again := &models.User{Email: "alex@example.com", DisplayName: "Alexandra"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, again))
	assert.Equal(t, firstID, again.ID)
	assert.Equal(t, "Alexandra", again.DisplayName)
	assert.True(t, again.IsAdmin)
}

func TestGetUserByEmailAndID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "kim@example.com", DisplayName: "Kim"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	byEmail, err := db.GetUserByEmail(ctx, "kim@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", byID.Email)

	_, err = db.GetUserByEmail(ctx, "missing@example.com")
	assert.Error(t, err)
}

func TestSetUserAdmin(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "sam@example.com", DisplayName: "Sam"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))
	assert.False(t, user.IsAdmin)

	require.NoError(t, db.SetUserAdmin(ctx, user.ID, true))

	admins, err := db.GetAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, user.ID, admins[0].ID)
}

func TestGetAllUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{Email: "a@example.com", DisplayName: "A"}))
	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{Email: "b@example.com", DisplayName: "B"}))

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
