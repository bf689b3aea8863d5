package domain

import (
	"time"

	"github.com/google/uuid"
)

// User-specific errors.
var (
	ErrUserNotFound = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrTokenExpired = &Error{Code: EUNAUTHORIZED, Message: "Token has expired"}
	ErrInvalidToken = &Error{Code: EUNAUTHORIZED, Message: "Invalid or unknown token"}
)

// Account represents a full user record in the system.
// This is distinct from domain.User, which is a minimal context type.
type Account struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BillingCustomer maps a user to their customer record at the payment
// provider. At most one non-deleted mapping exists per user.
type BillingCustomer struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Provider           string
	ProviderCustomerID string
	DeletedAt          *time.Time
	CreatedAt          time.Time
}
