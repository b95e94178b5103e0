package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"caro-server/internal/api/models"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User, password string) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, username string, req *models.UpdateProfileRequest) error
}

type sqliteUserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new SQLite-based UserRepository.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

// CreateUser hashes the password and inserts a new user.
func (r *sqliteUserRepository) CreateUser(ctx context.Context, user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashedPassword)

	query := `INSERT INTO users (username, password_hash, display_name, avatar, email, gender, birthday)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		user.Username, user.PasswordHash, user.DisplayName, user.Avatar, user.Email, user.Gender, user.Birthday)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByUsername retrieves a user by username. A missing user yields
// (nil, nil), not an error.
func (r *sqliteUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, password_hash, display_name, avatar, email, gender, birthday
		FROM users WHERE username = ?`
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// UpdateProfile overwrites the mutable profile fields of the named user.
func (r *sqliteUserRepository) UpdateProfile(ctx context.Context, username string, req *models.UpdateProfileRequest) error {
	query := `UPDATE users SET display_name = ?, avatar = ?, email = ?, gender = ?, birthday = ?
		WHERE username = ?`
	_, err := r.db.ExecContext(ctx, query,
		req.DisplayName, req.Avatar, req.Email, req.Gender, req.Birthday, username)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
