package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gameshelf/internal/models"
)

// CreateOrUpdateUser upserts a user row keyed by email. Identity fields
// come from the identity provider; admin/blocked flags are preserved.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	lastActivity := user.LastActivity
	if lastActivity.IsZero() {
		lastActivity = time.Now()
	}
	now := time.Now()

	query := `INSERT INTO users (email, display_name, is_admin, is_blocked, last_activity, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(email) DO UPDATE SET
                display_name = excluded.display_name,
                last_activity = excluded.last_activity,
                updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		user.Email,
		user.DisplayName,
		user.IsAdmin,
		user.IsBlocked,
		lastActivity,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}

	stored, err := db.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

const userColumns = `id, email, display_name, is_admin, is_blocked, last_activity, created_at, updated_at`

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.IsAdmin, &u.IsBlocked,
		&u.LastActivity, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	user, err := scanUser(db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (db *DB) UpdateUserActivity(ctx context.Context, id int64) error {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`UPDATE users SET last_activity = ?, updated_at = ? WHERE id = ?`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("failed to update user activity: %w", err)
	}
	return nil
}

func (db *DB) SetUserAdmin(ctx context.Context, id int64, isAdmin bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?`,
		isAdmin, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set user admin flag: %w", err)
	}
	return nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) GetAdmins(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_admin = 1 ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get admins: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
