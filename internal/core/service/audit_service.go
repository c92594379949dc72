package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditService struct {
	repo  ports.AuditRepository
	guard *Guard
	log   zerolog.Logger
}

func NewAuditService(repo ports.AuditRepository, guard *Guard, log zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, guard: guard, log: log}
}

// Record persists a single audit event. It is called by the dispatcher
// workers, never directly by request handlers.
func (s *AuditService) Record(ctx context.Context, event domain.AuditEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	s.log.Debug().
		Str("action", string(event.Action)).
		Str("actor_id", event.ActorID).
		Str("target_id", event.TargetID).
		Msg("audit event recorded")
	return nil
}

// ListRecent is restricted to SUPER_ADMIN.
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	if _, d := s.guard.Require(ctx, domain.RoleSuperAdmin); !d.Allowed() {
		return nil, d.Err()
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
