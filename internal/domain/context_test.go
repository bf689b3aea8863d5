package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserContext(t *testing.T) {
	t.Run("UserFromContext returns nil when no user", func(t *testing.T) {
		ctx := context.Background()
		user := UserFromContext(ctx)
		if user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}
	})

	t.Run("UserFromContext returns user when set", func(t *testing.T) {
		ctx := context.Background()
		expected := &User{
			ID:    uuid.New(),
			Email: "shopper@example.com",
		}
		ctx = NewContextWithUser(ctx, expected)

		user := UserFromContext(ctx)
		if user == nil {
			t.Fatal("expected user, got nil")
		}
		if user.ID != expected.ID {
			t.Errorf("expected ID %v, got %v", expected.ID, user.ID)
		}
		if user.Email != expected.Email {
			t.Errorf("expected Email %q, got %q", expected.Email, user.Email)
		}
	})

	t.Run("UserIDFromContext returns uuid.Nil when no user", func(t *testing.T) {
		ctx := context.Background()
		id := UserIDFromContext(ctx)
		if id != uuid.Nil {
			t.Errorf("expected uuid.Nil, got %v", id)
		}
	})

}

func TestRequestIDContext(t *testing.T) {
	t.Run("returns empty string when not set", func(t *testing.T) {
		if id := RequestIDFromContext(context.Background()); id != "" {
			t.Errorf("expected empty request ID, got %q", id)
		}
	})

	t.Run("round-trips the request ID", func(t *testing.T) {
		ctx := NewContextWithRequestID(context.Background(), "req-123")
		if id := RequestIDFromContext(ctx); id != "req-123" {
			t.Errorf("expected %q, got %q", "req-123", id)
		}
	})
}

func TestConvenienceHelpers(t *testing.T) {
	t.Run("IsAuthenticated", func(t *testing.T) {
		ctx := context.Background()
		if IsAuthenticated(ctx) {
			t.Error("expected unauthenticated")
		}
		ctx = NewContextWithUser(ctx, &User{ID: uuid.New()})
		if !IsAuthenticated(ctx) {
			t.Error("expected authenticated")
		}
	})

	t.Run("IsAdmin", func(t *testing.T) {
		ctx := NewContextWithUser(context.Background(), &User{ID: uuid.New()})
		if IsAdmin(ctx) {
			t.Error("regular user should not be admin")
		}
		ctx = NewContextWithUser(context.Background(), &User{ID: uuid.New(), IsAdmin: true})
		if !IsAdmin(ctx) {
			t.Error("expected admin")
		}
	})
}
