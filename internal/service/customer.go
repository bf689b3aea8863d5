package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/oakline/oakline/internal/billing"
	"github.com/oakline/oakline/internal/domain"
	"github.com/oakline/oakline/internal/repository"
	"github.com/oakline/oakline/internal/telemetry"
	"github.com/rs/zerolog"
)

// CustomerResolver guarantees a billing customer exists for a user.
type CustomerResolver interface {
	// EnsureCustomer returns the provider customer ID for the user,
	// creating the provider record and local mapping on first use.
	EnsureCustomer(ctx context.Context, userID uuid.UUID, email string) (string, error)
}

// customerService implements CustomerResolver.
type customerService struct {
	customers       repository.CustomerRepository
	billingProvider billing.Provider
	providerName    string
}

// NewCustomerService creates a new CustomerResolver instance.
func NewCustomerService(customers repository.CustomerRepository, billingProvider billing.Provider) CustomerResolver {
	return &customerService{
		customers:       customers,
		billingProvider: billingProvider,
		providerName:    "stripe",
	}
}

// EnsureCustomer resolves or creates the user's billing customer.
//
// Creation is a two-step saga: the provider record is created first,
// then the local mapping. If the mapping insert fails, the provider
// record is deleted so a retry can start clean instead of leaving an
// orphaned customer at the provider.
func (s *customerService) EnsureCustomer(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	logger := zerolog.Ctx(ctx)

	existing, err := s.customers.GetActiveByUser(ctx, userID)
	if err != nil {
		return "", domain.Internal(err, "customer.ensure", "failed to look up billing customer")
	}
	if existing != nil {
		return existing.ProviderCustomerID, nil
	}

	created, err := s.billingProvider.CreateCustomer(ctx, billing.CreateCustomerParams{
		Email: email,
		Metadata: map[string]string{
			"user_id": userID.String(),
		},
	})
	if err != nil {
		return "", domain.WrapError(err, domain.EINTERNAL, "customer.ensure", "failed to create billing customer")
	}

	if _, err := s.customers.Create(ctx, userID, s.providerName, created.ID); err != nil {
		// Compensate: remove the provider record we just created.
		result := "ok"
		if delErr := s.billingProvider.DeleteCustomer(ctx, created.ID); delErr != nil {
			result = "failed"
			logger.Error().
				Err(delErr).
				Str("customer_id", created.ID).
				Msg("failed to delete billing customer after mapping insert failure")
		}
		if telemetry.Business != nil {
			telemetry.Business.CompensationRuns.WithLabelValues("delete_customer", result).Inc()
		}
		return "", domain.Internal(err, "customer.ensure", "failed to save billing customer mapping")
	}

	logger.Info().
		Str("user_id", userID.String()).
		Str("customer_id", created.ID).
		Msg("billing customer created")

	return created.ID, nil
}
