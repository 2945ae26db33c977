package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gameshelf/internal/models"

	"github.com/google/uuid"
)

const rentalColumns = `id, uid, user_id, user_email, game_id, game_name,
                 start_date, end_date, status, rejection_reason, created_at,
                 updated_at, actual_start, actual_end, version`

func scanRental(row interface {
	Scan(dest ...interface{}) error
}) (*models.Rental, error) {
	r := &models.Rental{}
	var startStr, endStr, statusStr string
	err := row.Scan(
		&r.ID, &r.UID, &r.UserID, &r.UserEmail, &r.GameID, &r.GameName,
		&startStr, &endStr, &statusStr, &r.RejectionReason, &r.CreatedAt,
		&r.UpdatedAt, &r.ActualStart, &r.ActualEnd, &r.Version,
	)
	if err != nil {
		return nil, err
	}

	if r.StartDate, err = models.ParseDate(startStr); err != nil {
		return nil, fmt.Errorf("failed to parse rental start date %s: %w", startStr, err)
	}
	if r.EndDate, err = models.ParseDate(endStr); err != nil {
		return nil, fmt.Errorf("failed to parse rental end date %s: %w", endStr, err)
	}
	if r.Status, err = models.ParseRentalStatus(statusStr); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRental inserts a rental as-is, without any conflict checking.
// Submission paths should use SubmitRental instead.
func (db *DB) CreateRental(ctx context.Context, rental *models.Rental) error {
	now := time.Now()
	if rental.UID == "" {
		rental.UID = uuid.NewString()
	}
	query := `INSERT INTO rentals (
				uid, user_id, user_email, game_id, game_name,
				start_date, end_date, status, rejection_reason,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		rental.UID,
		rental.UserID,
		rental.UserEmail,
		rental.GameID,
		rental.GameName,
		models.FormatDate(rental.StartDate),
		models.FormatDate(rental.EndDate),
		string(rental.Status),
		rental.RejectionReason,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create rental: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rental.ID = id
	rental.CreatedAt = now
	rental.UpdatedAt = now
	rental.Version = 1
	return nil
}

// SubmitRental runs the overlap check and the insert inside one
// transaction, so two racing submissions cannot both pass the check.
// The rental is persisted with status pending.
func (db *DB) SubmitRental(ctx context.Context, rental *models.Rental) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	startStr := models.FormatDate(rental.StartDate)
	endStr := models.FormatDate(rental.EndDate)

	// Inclusive-bounds overlap against committed claims only.
	queryConflict := `SELECT id, start_date, end_date FROM rentals
              WHERE game_id = ? AND status IN (?, ?)
              AND start_date <= ? AND end_date >= ?
              ORDER BY start_date ASC LIMIT 1`
	var conflictID int64
	var cStartStr, cEndStr string
	err = tx.QueryRowContext(ctx, queryConflict,
		rental.GameID, string(models.StatusApproved), string(models.StatusRented),
		endStr, startStr,
	).Scan(&conflictID, &cStartStr, &cEndStr)
	switch {
	case err == nil:
		cStart, perr := models.ParseDate(cStartStr)
		if perr != nil {
			return fmt.Errorf("failed to parse conflicting start date %s: %w", cStartStr, perr)
		}
		cEnd, perr := models.ParseDate(cEndStr)
		if perr != nil {
			return fmt.Errorf("failed to parse conflicting end date %s: %w", cEndStr, perr)
		}
		return &ConflictError{
			GameID:        rental.GameID,
			RentalID:      conflictID,
			ConflictStart: cStart,
			ConflictEnd:   cEnd,
		}
	case errors.Is(err, sql.ErrNoRows):
		// No committed claim overlaps; proceed with the insert.
	default:
		return fmt.Errorf("failed to check conflicts in tx: %w", err)
	}

	now := time.Now()
	if rental.UID == "" {
		rental.UID = uuid.NewString()
	}
	queryInsert := `INSERT INTO rentals (
				uid, user_id, user_email, game_id, game_name,
				start_date, end_date, status, rejection_reason,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, queryInsert,
		rental.UID,
		rental.UserID,
		rental.UserEmail,
		rental.GameID,
		rental.GameName,
		startStr,
		endStr,
		string(models.StatusPending),
		"",
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rental in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	rental.ID = id
	rental.Status = models.StatusPending
	rental.RejectionReason = ""
	rental.CreatedAt = now
	rental.UpdatedAt = now
	rental.Version = 1

	return tx.Commit()
}

func (db *DB) GetRental(ctx context.Context, id int64) (*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = ?`
	rental, err := scanRental(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRentalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rental: %w", err)
	}
	return rental, nil
}

// GetBlockingRentals returns approved/rented rentals of a game whose
// closed interval intersects the given range.
func (db *DB) GetBlockingRentals(ctx context.Context, gameID int64, rng models.DateRange) ([]*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
              WHERE game_id = ? AND status IN (?, ?)
              AND start_date <= ? AND end_date >= ?
              ORDER BY start_date ASC`
	rows, err := db.QueryContext(ctx, query,
		gameID, string(models.StatusApproved), string(models.StatusRented),
		models.FormatDate(rng.End), models.FormatDate(rng.Start))
	if err != nil {
		return nil, fmt.Errorf("failed to get blocking rentals: %w", err)
	}
	defer rows.Close()

	return collectRentals(rows)
}

// GetGameRentals returns all rentals of a game whose status is in the set.
func (db *DB) GetGameRentals(ctx context.Context, gameID int64, statuses ...models.RentalStatus) ([]*models.Rental, error) {
	if len(statuses) == 0 {
		return nil, errors.New("at least one status is required")
	}

	placeholders := make([]string, len(statuses))
	args := make([]interface{}, 0, len(statuses)+1)
	args = append(args, gameID)
	for i, s := range statuses {
		placeholders[i] = "?"
		args = append(args, string(s))
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals
              WHERE game_id = ? AND status IN (` + strings.Join(placeholders, ", ") + `)
              ORDER BY start_date ASC`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get game rentals: %w", err)
	}
	defer rows.Close()

	return collectRentals(rows)
}

// GetUserRentals returns the user's rentals, newest submission first.
func (db *DB) GetUserRentals(ctx context.Context, userID int64) ([]*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
              WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user rentals: %w", err)
	}
	defer rows.Close()

	return collectRentals(rows)
}

func (db *DB) GetRentalsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
              WHERE start_date <= ? AND end_date >= ?
              ORDER BY start_date ASC, created_at ASC`
	rows, err := db.QueryContext(ctx, query, models.FormatDate(end), models.FormatDate(start))
	if err != nil {
		return nil, fmt.Errorf("failed to get rentals by date range: %w", err)
	}
	defer rows.Close()

	return collectRentals(rows)
}

func collectRentals(rows *sql.Rows) ([]*models.Rental, error) {
	var rentals []*models.Rental
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rentals, nil
}

// UpdateRentalStatusWithVersion moves a rental to the given status iff the
// caller saw the current version and the lifecycle permits the transition.
func (db *DB) UpdateRentalStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.RentalStatus, reason string) error {
	current, err := db.GetRental(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	query := `UPDATE rentals SET status = ?, rejection_reason = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, string(status), reason, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update rental status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// StartRental atomically moves an approved rental to rented and flags the
// game as rented. Both writes commit together or not at all.
func (db *DB) StartRental(ctx context.Context, id int64, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var gameID int64
	var startRaw string
	err = tx.QueryRowContext(ctx, `SELECT game_id, start_date FROM rentals WHERE id = ?`, id).Scan(&gameID, &startRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRentalNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load rental in tx: %w", err)
	}

	startDate, err := models.ParseDate(startRaw)
	if err != nil {
		return fmt.Errorf("failed to parse rental start date: %w", err)
	}
	if models.Day(now).Before(startDate) {
		return fmt.Errorf("%w: rental %d starts %s", ErrStartDateInFuture, id, startRaw)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE rentals SET status = ?, actual_start = ?, version = version + 1, updated_at = ?
         WHERE id = ? AND status = ?`,
		string(models.StatusRented), now, now, id, string(models.StatusApproved))
	if err != nil {
		return fmt.Errorf("failed to start rental in tx: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: rental %d is not approved", ErrInvalidTransition, id)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET status = ?, updated_at = ? WHERE id = ?`,
		string(models.GameStatusRented), now, gameID); err != nil {
		return fmt.Errorf("failed to flag game rented in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit start rental: %w", err)
	}

	db.setCachedGameStatus(gameID, models.GameStatusRented)
	return nil
}

// ReturnRental atomically moves a rented rental to returned and clears the
// game back to its normal status.
func (db *DB) ReturnRental(ctx context.Context, id int64, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var gameID int64
	err = tx.QueryRowContext(ctx, `SELECT game_id FROM rentals WHERE id = ?`, id).Scan(&gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRentalNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load rental in tx: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE rentals SET status = ?, actual_end = ?, version = version + 1, updated_at = ?
         WHERE id = ? AND status = ?`,
		string(models.StatusReturned), now, now, id, string(models.StatusRented))
	if err != nil {
		return fmt.Errorf("failed to return rental in tx: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: rental %d is not rented", ErrInvalidTransition, id)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET status = ?, updated_at = ? WHERE id = ?`,
		string(models.GameStatusNormal), now, gameID); err != nil {
		return fmt.Errorf("failed to clear game status in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit return rental: %w", err)
	}

	db.setCachedGameStatus(gameID, models.GameStatusNormal)
	return nil
}
