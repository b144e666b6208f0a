// Package repository implements PostgreSQL persistence for the user directory.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/queue-bot/internal/domain"
)

// UserRepository defines persistence operations for users and their listing sets.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateLastActiveAt(ctx context.Context, id int64) error
	AddListing(ctx context.Context, userID int64, listingID string, role domain.Role) error
	RemoveListing(ctx context.Context, userID int64, listingID string, role domain.Role) error
	DeleteListing(ctx context.Context, listingID string) error
	ListListings(ctx context.Context, userID int64, role domain.Role) ([]string, error)
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	if log == nil {
		log = slog.Default()
	}
	return &userRepository{
		db:  db,
		log: log,
	}
}

// FindByID retrieves a user by Telegram id. Missing users yield sql.ErrNoRows.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
		SELECT id, first_name, last_name, username, created_at, last_active_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.CreatedAt,
		&user.LastActiveAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		r.log.ErrorContext(ctx, "failed to fetch user", slog.Int64("user_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("select user: %w", err)
	}

	return &user, nil
}

// Create inserts the user, refreshing the profile fields when the row already exists.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (id, first_name, last_name, username, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    username = EXCLUDED.username,
		    last_active_at = EXCLUDED.last_active_at
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Username,
		user.CreatedAt,
		user.LastActiveAt,
	); err != nil {
		r.log.ErrorContext(ctx, "failed to create user", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *userRepository) UpdateLastActiveAt(ctx context.Context, id int64) error {
	const query = `UPDATE users SET last_active_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("update last active: %w", err)
	}
	return nil
}

// AddListing records the relation; adding it twice is a no-op. The user row is
// created on the fly so the relation never dangles.
func (r *userRepository) AddListing(ctx context.Context, userID int64, listingID string, role domain.Role) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add listing: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	const query = `
		INSERT INTO user_listings (user_id, listing_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, userID, listingID, string(role)); err != nil {
		return fmt.Errorf("insert user listing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add listing: %w", err)
	}
	return nil
}

func (r *userRepository) RemoveListing(ctx context.Context, userID int64, listingID string, role domain.Role) error {
	const query = `DELETE FROM user_listings WHERE user_id = $1 AND listing_id = $2 AND role = $3`

	if _, err := r.db.ExecContext(ctx, query, userID, listingID, string(role)); err != nil {
		return fmt.Errorf("delete user listing: %w", err)
	}
	return nil
}

// DeleteListing drops the listing from every user's sets.
func (r *userRepository) DeleteListing(ctx context.Context, listingID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_listings WHERE listing_id = $1`, listingID); err != nil {
		return fmt.Errorf("delete listing relations: %w", err)
	}
	return nil
}

func (r *userRepository) ListListings(ctx context.Context, userID int64, role domain.Role) ([]string, error) {
	const query = `
		SELECT listing_id
		FROM user_listings
		WHERE user_id = $1 AND role = $2
		ORDER BY created_at, listing_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, string(role))
	if err != nil {
		return nil, fmt.Errorf("select user listings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user listing: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user listings: %w", err)
	}

	return ids, nil
}
