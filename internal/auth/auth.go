// Package auth verifies bearer tokens presented on storefront requests.
package auth

import (
	"context"
	"time"

	"github.com/oakline/oakline/internal/domain"
)

// Verifier resolves a bearer token to the user it belongs to.
type Verifier interface {
	// Verify returns the user for a valid, unexpired token.
	// Returns domain.ErrInvalidToken or domain.ErrTokenExpired otherwise.
	Verify(ctx context.Context, token string) (*domain.User, error)
}

// TokenStore looks up issued tokens by digest. Implemented by the
// Postgres repository; only digests are ever persisted.
type TokenStore interface {
	// GetUserByTokenDigest returns the account owning the token and the
	// token's expiry. Returns nil, zero, nil when no token matches.
	GetUserByTokenDigest(ctx context.Context, digest string) (*domain.Account, time.Time, error)
}

// StoreVerifier verifies tokens against a TokenStore.
type StoreVerifier struct {
	store TokenStore
}

// NewStoreVerifier creates a Verifier backed by the given store.
func NewStoreVerifier(store TokenStore) *StoreVerifier {
	return &StoreVerifier{store: store}
}

// Verify implements Verifier.
func (v *StoreVerifier) Verify(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	account, expiresAt, err := v.store.GetUserByTokenDigest(ctx, DigestToken(token))
	if err != nil {
		return nil, domain.Internal(err, "auth.verify", "failed to look up token")
	}
	if account == nil {
		return nil, domain.ErrInvalidToken
	}
	if time.Now().After(expiresAt) {
		return nil, domain.ErrTokenExpired
	}

	return &domain.User{
		ID:      account.ID,
		Email:   account.Email,
		IsAdmin: account.IsAdmin,
	}, nil
}
