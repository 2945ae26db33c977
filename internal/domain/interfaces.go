package domain

import (
	"context"
	"time"

	"gameshelf/internal/models"
)

// Store is the persistence surface the services depend on.
type Store interface {
	GetRental(ctx context.Context, id int64) (*models.Rental, error)
	CreateRental(ctx context.Context, rental *models.Rental) error
	SubmitRental(ctx context.Context, rental *models.Rental) error
	UpdateRentalStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.RentalStatus, reason string) error
	StartRental(ctx context.Context, id int64, now time.Time) error
	ReturnRental(ctx context.Context, id int64, now time.Time) error
	GetBlockingRentals(ctx context.Context, gameID int64, rng models.DateRange) ([]*models.Rental, error)
	GetGameRentals(ctx context.Context, gameID int64, statuses ...models.RentalStatus) ([]*models.Rental, error)
	GetUserRentals(ctx context.Context, userID int64) ([]*models.Rental, error)
	GetRentalsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Rental, error)

	GetGames() []*models.Game
	GetGameByID(ctx context.Context, id int64) (*models.Game, error)
	GetGameByName(ctx context.Context, name string) (*models.Game, error)
	GetActiveGames(ctx context.Context) ([]*models.Game, error)
	CreateGame(ctx context.Context, game *models.Game) error
	UpdateGame(ctx context.Context, game *models.Game) error
	SetGameStatus(ctx context.Context, id int64, status models.GameStatus) error
	DeactivateGame(ctx context.Context, id int64) error
	SyncGames(ctx context.Context, games []models.Game) error

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	UpdateUserActivity(ctx context.Context, id int64) error
	SetUserAdmin(ctx context.Context, id int64, isAdmin bool) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetAdmins(ctx context.Context) ([]*models.User, error)
}

// SessionRepository persists browser session state between requests.
type SessionRepository interface {
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker schedules roster sheet updates.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, rentalID int64, rental *models.Rental, status string) error
}

// SheetsWriter applies rental rows to the roster spreadsheet.
type SheetsWriter interface {
	UpsertRental(ctx context.Context, rental *models.Rental) error
	UpdateRentalStatus(ctx context.Context, rentalID int64, status string) error
	ReplaceRentalsSheet(ctx context.Context, rentals []*models.Rental) error
}

// Notifier delivers one-way operational notifications to admins.
type Notifier interface {
	NotifyRentalSubmitted(rental *models.Rental)
	NotifyRentalDecided(rental *models.Rental)
}
