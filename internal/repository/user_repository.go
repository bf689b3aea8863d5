package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakline/oakline/internal/domain"
	"github.com/rs/zerolog"
)

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// GetUserByTokenDigest resolves a bearer token digest to its account.
func (r *userRepository) GetUserByTokenDigest(ctx context.Context, digest string) (*domain.Account, time.Time, error) {
	query := `
		SELECT u.id, u.email, COALESCE(u.full_name, ''), u.is_admin, u.created_at, u.updated_at, t.expires_at
		FROM user_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_digest = $1
	`

	var (
		account   domain.Account
		expiresAt time.Time
	)
	err := r.pool.QueryRow(ctx, query, digest).
		Scan(&account.ID, &account.Email, &account.FullName, &account.IsAdmin, &account.CreatedAt, &account.UpdatedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, nil
		}
		r.logger.Error().Err(err).Msg("failed to query token")
		return nil, time.Time{}, fmt.Errorf("failed to query token: %w", err)
	}

	return &account, expiresAt, nil
}
