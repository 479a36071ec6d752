// Package users provides user account storage and credential checks.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidUser        = errors.New("invalid user data")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is an account that owns folders and library items.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`

	passwordHash string
}

// Service provides user operations.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new user service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

// Create registers a new user with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, name, password string) (*User, error) {
	if name == "" || password == "" {
		return nil, ErrInvalidUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, password_hash) VALUES (?, ?)`,
		name, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	s.logger.Info().Int64("userId", id).Str("name", name).Msg("User created")
	return s.Get(ctx, id)
}

// Get retrieves a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.queryOne(ctx,
		`SELECT id, name, password_hash, created_at FROM users WHERE id = ?`, id)
}

// GetByName retrieves a user by username.
func (s *Service) GetByName(ctx context.Context, name string) (*User, error) {
	return s.queryOne(ctx,
		`SELECT id, name, password_hash, created_at FROM users WHERE name = ?`, name)
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, name, password string) (*User, error) {
	user, err := s.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) queryOne(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Name, &u.passwordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
