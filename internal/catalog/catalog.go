package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gameshelf/internal/models"

	"gopkg.in/yaml.v2"
)

// LoadGamesFile reads the seed catalog from a YAML file with a top-level
// games list.
func LoadGamesFile(path string) ([]models.Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read games file: %w", err)
	}

	var gamesConfig struct {
		Games []models.Game `yaml:"games"`
	}
	if err := yaml.Unmarshal(data, &gamesConfig); err != nil {
		return nil, fmt.Errorf("failed to parse games file: %w", err)
	}

	return gamesConfig.Games, nil
}

// csv columns, in order. A header row matching the first column is skipped.
var csvColumns = []string{"id", "name", "description", "status", "sort_order", "is_active"}

// ImportGamesCSV parses a catalog from CSV. Rows with an unknown status or
// a non-numeric id fail the whole import; partial catalogs do not load.
func ImportGamesCSV(r io.Reader) ([]models.Game, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvColumns)
	reader.TrimLeadingSpace = true

	var games []models.Game
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line+1, err)
		}
		line++

		if line == 1 && strings.EqualFold(record[0], csvColumns[0]) {
			continue
		}

		game, err := parseGameRecord(record)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		games = append(games, game)
	}

	return games, nil
}

func parseGameRecord(record []string) (models.Game, error) {
	var game models.Game

	id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return game, fmt.Errorf("invalid id %q", record[0])
	}
	game.ID = id
	game.Name = strings.TrimSpace(record[1])
	if game.Name == "" {
		return game, fmt.Errorf("name is required")
	}
	game.Description = strings.TrimSpace(record[2])

	status := strings.TrimSpace(record[3])
	if status == "" {
		status = string(models.GameStatusNormal)
	}
	parsed, err := models.ParseGameStatus(status)
	if err != nil {
		return game, err
	}
	game.Status = parsed

	if raw := strings.TrimSpace(record[4]); raw != "" {
		sortOrder, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return game, fmt.Errorf("invalid sort_order %q", record[4])
		}
		game.SortOrder = sortOrder
	}

	active := strings.TrimSpace(record[5])
	switch strings.ToLower(active) {
	case "", "true", "yes", "1":
		game.IsActive = true
	case "false", "no", "0":
		game.IsActive = false
	default:
		return game, fmt.Errorf("invalid is_active %q", record[5])
	}

	return game, nil
}
