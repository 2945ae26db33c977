package service

import (
	"context"

	"gameshelf/internal/domain"
	"gameshelf/internal/models"

	"github.com/rs/zerolog"
)

type GameService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewGameService(store domain.Store, logger *zerolog.Logger) *GameService {
	return &GameService{
		store:  store,
		logger: logger,
	}
}

// GetGames returns the cached catalog snapshot, sorted for display.
func (s *GameService) GetGames() []*models.Game {
	return s.store.GetGames()
}

func (s *GameService) GetActiveGames(ctx context.Context) ([]*models.Game, error) {
	return s.store.GetActiveGames(ctx)
}

func (s *GameService) GetGameByID(ctx context.Context, id int64) (*models.Game, error) {
	return s.store.GetGameByID(ctx, id)
}

func (s *GameService) GetGameByName(ctx context.Context, name string) (*models.Game, error) {
	return s.store.GetGameByName(ctx, name)
}

func (s *GameService) CreateGame(ctx context.Context, game *models.Game) error {
	return s.store.CreateGame(ctx, game)
}

func (s *GameService) UpdateGame(ctx context.Context, game *models.Game) error {
	return s.store.UpdateGame(ctx, game)
}

func (s *GameService) SetGameStatus(ctx context.Context, id int64, status models.GameStatus) error {
	if _, err := models.ParseGameStatus(string(status)); err != nil {
		return err
	}
	return s.store.SetGameStatus(ctx, id, status)
}

func (s *GameService) DeactivateGame(ctx context.Context, id int64) error {
	return s.store.DeactivateGame(ctx, id)
}

// SyncGames seeds the catalog from config, preserving live statuses of
// already known games.
func (s *GameService) SyncGames(ctx context.Context, games []models.Game) error {
	if err := s.store.SyncGames(ctx, games); err != nil {
		return err
	}
	s.logger.Info().Int("count", len(games)).Msg("game catalog synced")
	return nil
}
