package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

const maxCategoryNameLen = 80

type CategoryService struct {
	repo  ports.CategoryRepository
	guard *Guard
	audit ports.AuditSink
	log   zerolog.Logger
}

func NewCategoryService(repo ports.CategoryRepository, guard *Guard, audit ports.AuditSink, log zerolog.Logger) *CategoryService {
	if audit == nil {
		audit = noopSink{}
	}
	return &CategoryService{repo: repo, guard: guard, audit: audit, log: log}
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	if _, d := s.guard.Require(ctx, domain.RoleAdmin); !d.Allowed() {
		return nil, d.Err()
	}
	return s.repo.List(ctx)
}

func (s *CategoryService) Create(ctx context.Context, name string) (*domain.Category, error) {
	actor, d := s.guard.Require(ctx, domain.RoleAdmin)
	if !d.Allowed() {
		return nil, d.Err()
	}
	name, slug, err := categoryName(name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Category{Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return nil, err
	}

	s.audit.Enqueue(domain.AuditEvent{ActorID: actor.UserID, Action: domain.AuditCategoryCreated, TargetID: created.ID, Detail: slug, At: now})
	return created, nil
}

func (s *CategoryService) Rename(ctx context.Context, id, name string) (*domain.Category, error) {
	actor, d := s.guard.Require(ctx, domain.RoleAdmin)
	if !d.Allowed() {
		return nil, d.Err()
	}
	name, slug, err := categoryName(name)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Rename(ctx, id, name, slug)
	if err != nil {
		return nil, err
	}

	s.audit.Enqueue(domain.AuditEvent{ActorID: actor.UserID, Action: domain.AuditCategoryUpdated, TargetID: id, Detail: slug, At: time.Now().UTC()})
	return updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	actor, d := s.guard.Require(ctx, domain.RoleAdmin)
	if !d.Allowed() {
		return d.Err()
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Enqueue(domain.AuditEvent{ActorID: actor.UserID, Action: domain.AuditCategoryDeleted, TargetID: id, At: time.Now().UTC()})
	return nil
}

func categoryName(raw string) (name, slug string, err error) {
	name = strings.TrimSpace(raw)
	if name == "" {
		return "", "", domain.Invalid("name", "is required")
	}
	if len(name) > maxCategoryNameLen {
		return "", "", domain.Invalid("name", "must be at most 80 characters")
	}
	slug = domain.Slugify(name)
	if slug == "" {
		return "", "", domain.Invalid("name", "must contain letters or digits")
	}
	return name, slug, nil
}
