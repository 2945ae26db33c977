package config

import (
	"os"
	"path/filepath"
	"testing"

	"gameshelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./test.db
api:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, 8081, cfg.API.GRPC.Port)
	assert.True(t, cfg.API.HTTP.Enabled)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "x-user-email", cfg.API.Auth.HeaderUserMail)
	assert.Equal(t, models.MaxRentalDays, cfg.Rental.MaxRentalDays)
	assert.Equal(t, models.RateLimitRequests, cfg.Rental.RateLimit)
	assert.Equal(t, models.RateLimitWindow, cfg.Rental.RateWindow)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/env.db")
	path := writeConfig(t, `
database:
  path: ${TEST_DB_PATH}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
}

func TestLoadRequiresDatabasePath(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadParsesGamesAndAdmins(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./test.db
admins:
  - boss@example.com
games:
  - id: 1
    name: Brass
    status: normal
    sort_order: 10
    is_active: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Games, 1)
	assert.Equal(t, "Brass", cfg.Games[0].Name)
	assert.Equal(t, []string{"boss@example.com"}, cfg.Admins)
}

func TestValidateGames(t *testing.T) {
	t.Run("ZeroID", func(t *testing.T) {
		err := ValidateGames([]models.Game{{ID: 0, Name: "Brass"}})
		assert.Error(t, err)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		err := ValidateGames([]models.Game{
			{ID: 1, Name: "Brass"},
			{ID: 1, Name: "Azul"},
		})
		assert.Error(t, err)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		err := ValidateGames([]models.Game{{ID: 1, Name: "Brass", Status: "bogus"}})
		assert.Error(t, err)
	})

	t.Run("Valid", func(t *testing.T) {
		err := ValidateGames([]models.Game{
			{ID: 1, Name: "Brass", Status: models.GameStatusNormal},
			{ID: 2, Name: "Azul"},
		})
		assert.NoError(t, err)
	})
}
