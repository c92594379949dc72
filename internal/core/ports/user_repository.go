package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// UserRepository is the credential store. Implementations enforce email
// uniqueness atomically and compare emails case-insensitively.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Upsert overwrites the name, password hash and role of an existing user
	// with the same email, or creates one.
	Upsert(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.User, error)
}
