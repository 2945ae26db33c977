package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"gameshelf/internal/models"
)

func (db *DB) setCachedGameStatus(id int64, status models.GameStatus) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if g, ok := db.gamesCache[id]; ok {
		g.Status = status
		db.gamesCache[id] = g
	}
}

func (db *DB) cacheGame(g models.Game) {
	db.mu.Lock()
	db.gamesCache[g.ID] = g
	db.mu.Unlock()
}

// GetGames returns the cached catalog snapshot sorted for display.
func (db *DB) GetGames() []*models.Game {
	db.mu.RLock()
	games := make([]*models.Game, 0, len(db.gamesCache))
	for _, g := range db.gamesCache {
		game := g
		games = append(games, &game)
	}
	db.mu.RUnlock()

	sort.Slice(games, func(i, j int) bool {
		if games[i].SortOrder == games[j].SortOrder {
			return games[i].ID < games[j].ID
		}
		return games[i].SortOrder < games[j].SortOrder
	})
	return games
}

func (db *DB) CreateGame(ctx context.Context, game *models.Game) error {
	if game.Status == "" {
		game.Status = models.GameStatusNormal
	}
	if !game.Status.Valid() {
		return fmt.Errorf("unknown game status: %q", game.Status)
	}

	now := time.Now()
	query := `INSERT INTO games (name, description, status, sort_order, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		game.Name,
		game.Description,
		string(game.Status),
		game.SortOrder,
		game.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	game.ID = id
	game.CreatedAt = now
	game.UpdatedAt = now

	db.cacheGame(*game)
	return nil
}

func scanGame(row interface {
	Scan(dest ...interface{}) error
}) (*models.Game, error) {
	g := &models.Game{}
	var statusStr string
	err := row.Scan(
		&g.ID, &g.Name, &g.Description, &statusStr,
		&g.SortOrder, &g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if g.Status, err = models.ParseGameStatus(statusStr); err != nil {
		return nil, err
	}
	return g, nil
}

const gameColumns = `id, name, description, status, sort_order, is_active, created_at, updated_at`

func (db *DB) GetGameByID(ctx context.Context, id int64) (*models.Game, error) {
	db.mu.RLock()
	if g, ok := db.gamesCache[id]; ok {
		db.mu.RUnlock()
		game := g
		return &game, nil
	}
	db.mu.RUnlock()

	query := `SELECT ` + gameColumns + ` FROM games WHERE id = ?`
	game, err := scanGame(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	db.cacheGame(*game)
	return game, nil
}

func (db *DB) GetGameByName(ctx context.Context, name string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE name = ?`
	game, err := scanGame(db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by name: %w", err)
	}
	return game, nil
}

func (db *DB) GetActiveGames(ctx context.Context) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE is_active = 1 ORDER BY sort_order ASC, id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (db *DB) UpdateGame(ctx context.Context, game *models.Game) error {
	if !game.Status.Valid() {
		return fmt.Errorf("unknown game status: %q", game.Status)
	}

	query := `UPDATE games SET name = ?, description = ?, status = ?, sort_order = ?, is_active = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		game.Name, game.Description, string(game.Status),
		game.SortOrder, game.IsActive, now, game.ID)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrGameNotFound
	}

	game.UpdatedAt = now
	db.cacheGame(*game)
	return nil
}

// SetGameStatus updates only the availability tag of a game.
func (db *DB) SetGameStatus(ctx context.Context, id int64, status models.GameStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown game status: %q", status)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE games SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set game status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrGameNotFound
	}

	db.setCachedGameStatus(id, status)
	return nil
}

func (db *DB) DeactivateGame(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE games SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate game: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrGameNotFound
	}

	db.mu.Lock()
	if g, ok := db.gamesCache[id]; ok {
		g.IsActive = false
		db.gamesCache[id] = g
	}
	db.mu.Unlock()
	return nil
}

// SyncGames upserts the seed catalog by explicit id and refreshes the cache.
func (db *DB) SyncGames(ctx context.Context, games []models.Game) error {
	now := time.Now()
	for i := range games {
		g := &games[i]
		if g.Status == "" {
			g.Status = models.GameStatusNormal
		}
		if !g.Status.Valid() {
			return fmt.Errorf("unknown game status for %q: %q", g.Name, g.Status)
		}

		query := `INSERT INTO games (id, name, description, status, sort_order, is_active, created_at, updated_at)
                  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
                  ON CONFLICT(id) DO UPDATE SET
                      name = excluded.name,
                      description = excluded.description,
                      sort_order = excluded.sort_order,
                      is_active = excluded.is_active,
                      updated_at = excluded.updated_at`
		if _, err := db.ExecContext(ctx, query,
			g.ID, g.Name, g.Description, string(g.Status),
			g.SortOrder, g.IsActive, now, now); err != nil {
			return fmt.Errorf("failed to sync game %q: %w", g.Name, err)
		}
	}

	fresh, err := db.GetActiveGames(ctx)
	if err != nil {
		return err
	}

	db.mu.Lock()
	db.gamesCache = make(map[int64]models.Game, len(fresh))
	for _, g := range fresh {
		db.gamesCache[g.ID] = *g
	}
	db.mu.Unlock()
	return nil
}
