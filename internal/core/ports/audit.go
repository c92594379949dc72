package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// AuditRepository persists the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	// ListRecent returns at most limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}

// AuditSink accepts events for asynchronous persistence. Enqueue never blocks
// the caller on storage.
type AuditSink interface {
	Enqueue(event domain.AuditEvent)
}

type AuditService interface {
	Record(ctx context.Context, event domain.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}
