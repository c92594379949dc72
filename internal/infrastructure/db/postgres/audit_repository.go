package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

var _ ports.AuditRepository = (*AuditRepository)(nil)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEvent) error {
	if e.ID == "" {
		e.ID = newID("")
	}
	const query = `INSERT INTO audit_events (id, actor_id, action, target_id, detail, at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.pool.Exec(ctx, query, e.ID, e.ActorID, string(e.Action), e.TargetID, e.Detail, stamp(e.At)); err != nil {
		return domain.Persistence("insert audit event", err)
	}
	return nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	const query = `SELECT id, actor_id, action, target_id, detail, at
		FROM audit_events ORDER BY at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, domain.Persistence("list audit events", err)
	}
	defer rows.Close()

	out := make([]*domain.AuditEvent, 0, limit)
	for rows.Next() {
		var (
			e      domain.AuditEvent
			action string
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &action, &e.TargetID, &e.Detail, &e.At); err != nil {
			return nil, domain.Persistence("scan audit event", err)
		}
		e.Action = domain.AuditAction(action)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list audit events", err)
	}
	return out, nil
}
