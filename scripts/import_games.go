package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gameshelf/internal/catalog"
	"gameshelf/internal/config"
	"gameshelf/internal/database"
	"gameshelf/internal/models"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		inputPath = flag.String("input", "configs/games.yaml", "path to a games catalog (.yaml or .csv)")
		dbPath    = flag.String("db", "./data/gameshelf.db", "path to sqlite db")
	)
	flag.Parse()

	games, err := loadCatalog(*inputPath)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return fmt.Errorf("no games in %s", *inputPath)
	}
	if err := config.ValidateGames(games); err != nil {
		return err
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.SyncGames(ctx, games); err != nil {
		return fmt.Errorf("sync games: %w", err)
	}

	logger.Info().Int("count", len(games)).Str("input", *inputPath).Msg("games imported")
	return nil
}

func loadCatalog(path string) ([]models.Game, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		return catalog.ImportGamesCSV(f)
	default:
		return catalog.LoadGamesFile(path)
	}
}
