package postgres

import (
	"context"
	"errors"
	"fmt"

	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

const uniqueViolation = "23505"

type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger.Named("PostgresStore")}
}

// Ping verifies the pool can reach the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

const getUserByEmail = `
SELECT id, email, display_name, hashed_password, created_at, updated_at
FROM users
WHERE email = $1`

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx, getUserByEmail, email).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("user not found", zap.String("email", email))
			return nil, store.ErrNotFound
		}
		s.logger.Error("failed to query user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}

	return user, nil
}

const createUser = `
INSERT INTO users (id, email, display_name, hashed_password)
VALUES ($1, $2, $3, $4)`

// CreateUser inserts a new user record. created_at and updated_at use database defaults.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.Exec(ctx, createUser,
		user.ID,
		user.Email,
		user.DisplayName,
		user.HashedPassword,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			s.logger.Error("postgres error inserting user",
				zap.String("email", user.Email),
				zap.String("code", pgErr.Code),
				zap.String("detail", pgErr.Detail),
			)
			if pgErr.Code == uniqueViolation {
				return store.ErrConflict
			}
		} else {
			s.logger.Error("failed to insert user", zap.String("email", user.Email), zap.Error(err))
		}
		return fmt.Errorf("database error creating user: %w", err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID.String()))
	return nil
}
