package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gameshelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGamesFile(t *testing.T) {
	content := `games:
  - id: 1
    name: Brass Birmingham
    description: Economic strategy
    status: normal
    sort_order: 10
    is_active: true
  - id: 2
    name: Wingspan
    status: new
    sort_order: 20
    is_active: true
`
	path := filepath.Join(t.TempDir(), "games.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	games, err := LoadGamesFile(path)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, int64(1), games[0].ID)
	assert.Equal(t, "Brass Birmingham", games[0].Name)
	assert.Equal(t, models.GameStatusNormal, games[0].Status)
	assert.Equal(t, models.GameStatusNew, games[1].Status)
}

func TestLoadGamesFileMissing(t *testing.T) {
	_, err := LoadGamesFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestImportGamesCSV(t *testing.T) {
	t.Run("WithHeader", func(t *testing.T) {
		input := `id,name,description,status,sort_order,is_active
1,Brass Birmingham,Economic strategy,normal,10,true
2,Wingspan,Birds,new,20,yes
3,Gloomhaven,,,30,1
`
		games, err := ImportGamesCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, games, 3)
		assert.Equal(t, "Wingspan", games[1].Name)
		assert.Equal(t, models.GameStatusNew, games[1].Status)
		// Blank status defaults to normal.
		assert.Equal(t, models.GameStatusNormal, games[2].Status)
		assert.True(t, games[2].IsActive)
	})

	t.Run("WithoutHeader", func(t *testing.T) {
		input := "5,Azul,Tiles,normal,50,true\n"
		games, err := ImportGamesCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, int64(5), games[0].ID)
	})

	t.Run("BadStatusFailsWholeImport", func(t *testing.T) {
		input := "1,Brass,ok,normal,10,true\n2,Wingspan,ok,bogus,20,true\n"
		_, err := ImportGamesCSV(strings.NewReader(input))
		assert.Error(t, err)
	})

	t.Run("BadIDFails", func(t *testing.T) {
		input := "abc,Brass,ok,normal,10,true\n"
		_, err := ImportGamesCSV(strings.NewReader(input))
		assert.Error(t, err)
	})

	t.Run("MissingNameFails", func(t *testing.T) {
		input := "1, ,ok,normal,10,true\n"
		_, err := ImportGamesCSV(strings.NewReader(input))
		assert.Error(t, err)
	})

	t.Run("BadActiveFlagFails", func(t *testing.T) {
		input := "1,Brass,ok,normal,10,maybe\n"
		_, err := ImportGamesCSV(strings.NewReader(input))
		assert.Error(t, err)
	})

	t.Run("WrongColumnCountFails", func(t *testing.T) {
		input := "1,Brass,ok\n"
		_, err := ImportGamesCSV(strings.NewReader(input))
		assert.Error(t, err)
	})
}
