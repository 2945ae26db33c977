package database

import (
	"context"
	"testing"

	"gameshelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetGame(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	game := &models.Game{Name: "Wingspan", Description: "birds", SortOrder: 5, IsActive: true}
	require.NoError(t, db.CreateGame(ctx, game))
	assert.NotZero(t, game.ID)
	assert.Equal(t, models.GameStatusNormal, game.Status)

	stored, err := db.GetGameByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wingspan", stored.Name)
	assert.Equal(t, int64(5), stored.SortOrder)

	byName, err := db.GetGameByName(ctx, "Wingspan")
	require.NoError(t, err)
	assert.Equal(t, game.ID, byName.ID)

	_, err = db.GetGameByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = db.GetGameByName(ctx, "missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGetGamesSorted(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateGame(ctx, &models.Game{Name: "Second", SortOrder: 20, IsActive: true}))
	require.NoError(t, db.CreateGame(ctx, &models.Game{Name: "First", SortOrder: 10, IsActive: true}))

	games := db.GetGames()
	require.Len(t, games, 2)
	assert.Equal(t, "First", games[0].Name)
	assert.Equal(t, "Second", games[1].Name)
}

func TestSetGameStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	game := createTestGame(t, db, "Gloomhaven")

	require.NoError(t, db.SetGameStatus(ctx, game.ID, models.GameStatusShipping))

	stored, err := db.GetGameByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusShipping, stored.Status)

	assert.Error(t, db.SetGameStatus(ctx, game.ID, models.GameStatus("bogus")))
	assert.ErrorIs(t, db.SetGameStatus(ctx, 9999, models.GameStatusNormal), ErrGameNotFound)
}

func TestDeactivateGame(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	game := createTestGame(t, db, "Root")
	require.NoError(t, db.DeactivateGame(ctx, game.ID))

	active, err := db.GetActiveGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, db.DeactivateGame(ctx, 9999), ErrGameNotFound)
}

func TestSyncGames(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed := []models.Game{
		{ID: 1, Name: "Brass", SortOrder: 10, IsActive: true},
		{ID: 2, Name: "Azul", SortOrder: 20, IsActive: true},
	}
	require.NoError(t, db.SyncGames(ctx, seed))

	games := db.GetGames()
	require.Len(t, games, 2)

	// A live status change must survive a re-sync of the seed catalog.
	require.NoError(t, db.SetGameStatus(ctx, 1, models.GameStatusRented))

	seed[0].Name = "Brass Birmingham"
	require.NoError(t, db.SyncGames(ctx, seed))

	stored, err := db.GetGameByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Brass Birmingham", stored.Name)
	assert.Equal(t, models.GameStatusRented, stored.Status)
}
