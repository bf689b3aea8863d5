package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/oakline/internal/billing"
	"github.com/oakline/oakline/internal/domain"
)

func TestEnsureCustomer_CreatesMappingOnFirstUse(t *testing.T) {
	customers := newFakeCustomerRepo()
	provider := billing.NewMockProvider()
	svc := NewCustomerService(customers, provider)

	userID := uuid.New()
	customerID, err := svc.EnsureCustomer(context.Background(), userID, "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, customerID)

	require.Len(t, customers.created, 1)
	assert.Equal(t, userID, customers.created[0].UserID)
	assert.Equal(t, "stripe", customers.created[0].Provider)
	assert.Equal(t, customerID, customers.created[0].ProviderCustomerID)
}

func TestEnsureCustomer_ReturnsExistingMapping(t *testing.T) {
	customers := newFakeCustomerRepo()
	provider := billing.NewMockProvider()
	svc := NewCustomerService(customers, provider)

	userID := uuid.New()
	customers.byUser[userID] = &domain.BillingCustomer{
		UserID:             userID,
		Provider:           "stripe",
		ProviderCustomerID: "cus_existing",
	}

	customerID, err := svc.EnsureCustomer(context.Background(), userID, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_existing", customerID)
	assert.Empty(t, provider.CallLog, "provider must not be called when a mapping exists")
}

func TestEnsureCustomer_ProviderFailure(t *testing.T) {
	customers := newFakeCustomerRepo()
	provider := billing.NewMockProvider()
	provider.CreateCustomerFunc = func(ctx context.Context, params billing.CreateCustomerParams) (*billing.Customer, error) {
		return nil, errors.New("stripe is down")
	}
	svc := NewCustomerService(customers, provider)

	_, err := svc.EnsureCustomer(context.Background(), uuid.New(), "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Empty(t, customers.created)
}

func TestEnsureCustomer_MappingInsertFailureDeletesProviderCustomer(t *testing.T) {
	customers := newFakeCustomerRepo()
	customers.createErr = errors.New("unique violation")
	provider := billing.NewMockProvider()
	svc := NewCustomerService(customers, provider)

	_, err := svc.EnsureCustomer(context.Background(), uuid.New(), "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

	require.Len(t, provider.DeletedCustomers, 1, "provider customer should be compensated")
	assert.Empty(t, provider.Customers, "mock should have removed the customer")
}

func TestEnsureCustomer_CompensationFailureStillReturnsError(t *testing.T) {
	customers := newFakeCustomerRepo()
	customers.createErr = errors.New("unique violation")
	provider := billing.NewMockProvider()
	provider.DeleteCustomerFunc = func(ctx context.Context, customerID string) error {
		return errors.New("stripe is down")
	}
	svc := NewCustomerService(customers, provider)

	_, err := svc.EnsureCustomer(context.Background(), uuid.New(), "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestEnsureCustomer_LookupFailure(t *testing.T) {
	customers := newFakeCustomerRepo()
	customers.getErr = errors.New("connection refused")
	provider := billing.NewMockProvider()
	svc := NewCustomerService(customers, provider)

	_, err := svc.EnsureCustomer(context.Background(), uuid.New(), "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestEnsureCustomer_PassesUserMetadata(t *testing.T) {
	customers := newFakeCustomerRepo()
	provider := billing.NewMockProvider()
	var captured billing.CreateCustomerParams
	provider.CreateCustomerFunc = func(ctx context.Context, params billing.CreateCustomerParams) (*billing.Customer, error) {
		captured = params
		return &billing.Customer{ID: "cus_meta", Email: params.Email}, nil
	}
	svc := NewCustomerService(customers, provider)

	userID := uuid.New()
	_, err := svc.EnsureCustomer(context.Background(), userID, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", captured.Email)
	assert.Equal(t, userID.String(), captured.Metadata["user_id"])
}
