package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// UserService manages the caller's own account and, for admins, customers.
type UserService struct {
	users    ports.UserRepository
	hasher   *PasswordHasher
	guard    *Guard
	audit    ports.AuditSink
	log      zerolog.Logger
	validate *validator.Validate
}

func NewUserService(users ports.UserRepository, hasher *PasswordHasher, guard *Guard, audit ports.AuditSink, log zerolog.Logger) *UserService {
	if audit == nil {
		audit = noopSink{}
	}
	return &UserService{
		users:    users,
		hasher:   hasher,
		guard:    guard,
		audit:    audit,
		log:      log,
		validate: validator.New(),
	}
}

// Profile returns the account behind the current session.
func (s *UserService) Profile(ctx context.Context) (*domain.User, error) {
	sess, d := s.guard.Require(ctx, domain.RoleUser)
	if !d.Allowed() {
		return nil, d.Err()
	}
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// account deleted while the token was still valid
			return nil, s.guard.LoginRedirect().Err()
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	if _, d := s.guard.Require(ctx, domain.RoleAdmin); !d.Allowed() {
		return nil, d.Err()
	}
	return s.users.List(ctx)
}

// Create adds an account on behalf of an admin. The actor cannot grant a
// role above its own.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	actor, d := s.guard.Require(ctx, domain.RoleAdmin)
	if !d.Allowed() {
		return nil, d.Err()
	}

	email, name, err := checkAccountFields(s.validate, in.Email, in.Name, in.Password)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == 0 {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.Invalid("role", "is not a known role")
	}
	if !actor.Role.AtLeast(role) {
		return nil, domain.ErrForbidden
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Enqueue(domain.AuditEvent{ActorID: actor.UserID, Action: domain.AuditUserCreated, TargetID: created.ID, Detail: "role=" + role.String(), At: now})
	s.log.Info().Str("actor_id", actor.UserID).Str("user_id", created.ID).Msg("customer created")
	return created, nil
}

// Update changes a customer's name and/or role. An actor may only touch users
// at or below its own role and may not grant a role above its own.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	actor, d := s.guard.Require(ctx, domain.RoleAdmin)
	if !d.Allowed() {
		return nil, d.Err()
	}
	if in.Name == nil && in.Role == nil {
		return nil, domain.Invalid("", "nothing to update")
	}

	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.AtLeast(target.Role) {
		return nil, domain.ErrForbidden
	}

	var upd domain.UserUpdate
	var changes []string
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name", "must not be empty")
		}
		if len(name) > maxNameLen {
			return nil, domain.Invalid("name", "must be at most 100 characters")
		}
		upd.Name = &name
		changes = append(changes, "name")
	}
	if in.Role != nil {
		role := *in.Role
		if !role.Valid() {
			return nil, domain.Invalid("role", "is not a known role")
		}
		if !actor.Role.AtLeast(role) {
			return nil, domain.ErrForbidden
		}
		upd.Role = &role
		changes = append(changes, "role="+role.String())
	}

	if err := s.users.Update(ctx, id, upd); err != nil {
		return nil, err
	}

	s.audit.Enqueue(domain.AuditEvent{ActorID: actor.UserID, Action: domain.AuditUserUpdated, TargetID: id, Detail: strings.Join(changes, ","), At: time.Now().UTC()})
	s.log.Info().Str("actor_id", actor.UserID).Str("user_id", id).Strs("changes", changes).Msg("customer updated")
	return s.users.FindByID(ctx, id)
}

// Delete hard-deletes a customer. Actors cannot delete themselves or users
// with a higher role.
func (s *UserService) Delete(ctx context.Context, id string) error {
	actor, d := s.guard.Require(ctx, domain.RoleAdmin)
	if !d.Allowed() {
		return d.Err()
	}
	if id == actor.UserID {
		return domain.ErrForbidden
	}

	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.AtLeast(target.Role) {
		return domain.ErrForbidden
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Enqueue(domain.AuditEvent{ActorID: actor.UserID, Action: domain.AuditUserDeleted, TargetID: id, At: time.Now().UTC()})
	s.log.Info().Str("actor_id", actor.UserID).Str("user_id", id).Msg("customer deleted")
	return nil
}

// Bootstrap upserts a SUPER_ADMIN account. It runs at startup, outside any
// request, and therefore bypasses the guard.
func (s *UserService) Bootstrap(ctx context.Context, email, password string) (*domain.User, error) {
	key, _, err := checkAccountFields(s.validate, email, "", password)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.users.Upsert(ctx, &domain.User{
		Email:        key,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
