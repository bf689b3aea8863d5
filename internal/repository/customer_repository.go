package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakline/oakline/internal/domain"
	"github.com/rs/zerolog"
)

// customerRepository implements the CustomerRepository interface using PostgreSQL.
type customerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCustomerRepository creates a new PostgreSQL-backed billing customer repository.
func NewCustomerRepository(pool *pgxpool.Pool, logger zerolog.Logger) CustomerRepository {
	return &customerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "customer").Logger(),
	}
}

// GetActiveByUser returns the user's non-deleted billing customer mapping.
func (r *customerRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.BillingCustomer, error) {
	query := `
		SELECT id, user_id, provider, provider_customer_id, deleted_at, created_at
		FROM billing_customers
		WHERE user_id = $1 AND deleted_at IS NULL
	`

	var c domain.BillingCustomer
	err := r.pool.QueryRow(ctx, query, userID).
		Scan(&c.ID, &c.UserID, &c.Provider, &c.ProviderCustomerID, &c.DeletedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query billing customer")
		return nil, fmt.Errorf("failed to query billing customer: %w", err)
	}
	return &c, nil
}

// Create inserts a new billing customer mapping for the user.
func (r *customerRepository) Create(ctx context.Context, userID uuid.UUID, provider, providerCustomerID string) (*domain.BillingCustomer, error) {
	query := `
		INSERT INTO billing_customers (user_id, provider, provider_customer_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	c := domain.BillingCustomer{
		UserID:             userID,
		Provider:           provider,
		ProviderCustomerID: providerCustomerID,
	}

	err := r.pool.QueryRow(ctx, query, userID, provider, providerCustomerID).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("provider_customer_id", providerCustomerID).
			Msg("failed to create billing customer")
		return nil, fmt.Errorf("failed to create billing customer: %w", err)
	}

	r.logger.Debug().
		Str("user_id", userID.String()).
		Str("provider_customer_id", providerCustomerID).
		Msg("billing customer created")

	return &c, nil
}
