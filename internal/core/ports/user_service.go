package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// CreateUserInput is an admin-initiated account creation.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role // zero means RoleUser
}

// UpdateUserInput changes a user's display name and/or role.
type UpdateUserInput struct {
	Name *string
	Role *domain.Role
}

// UserService exposes account and customer management. Every method checks
// the caller's session before touching the store.
type UserService interface {
	Profile(ctx context.Context) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
