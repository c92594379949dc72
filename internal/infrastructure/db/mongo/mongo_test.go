package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/99minutos/storefront/internal/core/domain"
)

func TestToMongoUser_NormalizesEmailKey(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := toMongoUser(&domain.User{Email: " Bob@Example.COM", Name: "Bob", Role: domain.RoleAdmin, CreatedAt: created, UpdatedAt: created})

	if doc.EmailKey != "bob@example.com" {
		t.Fatalf("expected normalized email_key, got %q", doc.EmailKey)
	}
	if doc.Role != "ADMIN" {
		t.Fatalf("expected role name, got %q", doc.Role)
	}
	if doc.CreatedAt != created.Unix() {
		t.Fatalf("expected unix timestamp, got %d", doc.CreatedAt)
	}
}

func TestMongoUser_BSONRoundTripOmitsEmptyHash(t *testing.T) {
	doc := toMongoUser(&domain.User{Email: "sso@example.com", Role: domain.RoleUser})
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := bson.Raw(raw).LookupErr("password_hash"); err == nil {
		t.Fatalf("password-less account must not store a password_hash field")
	}

	var back mongoUser
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back.ID = primitive.NewObjectID()
	u, err := back.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if u.PasswordHash != "" || u.Role != domain.RoleUser || u.ID == "" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestMongoUser_UnknownRoleRejected(t *testing.T) {
	mu := mongoUser{ID: primitive.NewObjectID(), Role: "OWNER"}
	if _, err := mu.toDomain(); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestUnixTimeHelpers(t *testing.T) {
	if !unixToTime(0).IsZero() {
		t.Fatalf("zero timestamp must map to zero time")
	}
	if timeToUnix(time.Time{}) == 0 {
		t.Fatalf("zero time must be stamped with now")
	}
}
