package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

// UserRepository reads person accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UsernameExists reports whether a login identifier is taken.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM users WHERE username = $1 LIMIT 1", username)
}

// EmailExists checks e-mail uniqueness, ignoring excludeID when set.
func (r *UserRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	if excludeID != "" {
		return exists(ctx, r.db, "SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2 LIMIT 1", email, excludeID)
	}
	return exists(ctx, r.db, "SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1", email)
}

// FindByID returns a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := `SELECT id, full_name, role, username, email, password_hash, plain_password, religion, created_at, updated_at
        FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func exists(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (bool, error) {
	var one int
	if err := sqlx.GetContext(ctx, q, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("exists check: %w", err)
	}
	return true, nil
}
