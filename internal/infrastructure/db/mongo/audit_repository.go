package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

const auditCollection = "audit_events"

var _ ports.AuditRepository = (*AuditRepository)(nil)

type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEvent struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	ActorID  string             `bson:"actor_id,omitempty"`
	Action   string             `bson:"action"`
	TargetID string             `bson:"target_id,omitempty"`
	Detail   string             `bson:"detail,omitempty"`
	At       time.Time          `bson:"at"`
}

func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEvent) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	res, err := r.coll.InsertOne(ctx, mongoAuditEvent{
		ActorID:  e.ActorID,
		Action:   string(e.Action),
		TargetID: e.TargetID,
		Detail:   e.Detail,
		At:       at.UTC(),
	})
	if err != nil {
		return domain.Persistence("insert audit event", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = oid.Hex()
	}
	return nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, domain.Persistence("list audit events", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoAuditEvent
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domain.Persistence("decode audit events", err)
	}
	out := make([]*domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.AuditEvent{
			ID:       d.ID.Hex(),
			ActorID:  d.ActorID,
			Action:   domain.AuditAction(d.Action),
			TargetID: d.TargetID,
			Detail:   d.Detail,
			At:       d.At.UTC(),
		})
	}
	return out, nil
}
