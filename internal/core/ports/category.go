package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// CategoryRepository persists catalog categories. Slugs are unique.
type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	Rename(ctx context.Context, id, name, slug string) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
	Rename(ctx context.Context, id, name string) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
}
