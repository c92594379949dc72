package domain

import "time"

// AuditAction names a recorded privileged or authentication event.
type AuditAction string

const (
	AuditLoginSucceeded  AuditAction = "login_succeeded"
	AuditLoginFailed     AuditAction = "login_failed"
	AuditUserCreated     AuditAction = "user_created"
	AuditUserUpdated     AuditAction = "user_updated"
	AuditUserDeleted     AuditAction = "user_deleted"
	AuditCategoryCreated AuditAction = "category_created"
	AuditCategoryUpdated AuditAction = "category_updated"
	AuditCategoryDeleted AuditAction = "category_deleted"
)

// AuditEvent records who did what to which entity.
type AuditEvent struct {
	ID       string      `json:"id"`
	ActorID  string      `json:"actor_id,omitempty"`
	Action   AuditAction `json:"action"`
	TargetID string      `json:"target_id,omitempty"`
	Detail   string      `json:"detail,omitempty"`
	At       time.Time   `json:"at"`
}
