package ports

import (
	"context"
	"time"

	"github.com/99minutos/storefront/internal/core/domain"
)

// SignupInput carries the fields a visitor submits to create an account.
type SignupInput struct {
	Email    string
	Name     string
	Password string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// LoginLimiter throttles login attempts per key.
type LoginLimiter interface {
	// Allow records an attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}
