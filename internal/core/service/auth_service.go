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

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores input beyond 72 bytes
	maxNameLen     = 100
)

// AuthService implements signup and login.
type AuthService struct {
	users    ports.UserRepository
	hasher   *PasswordHasher
	sessions *SessionIssuer
	limiter  ports.LoginLimiter
	audit    ports.AuditSink
	log      zerolog.Logger

	validate  *validator.Validate
	dummyHash string
}

type AuthOption func(*AuthService)

// WithLoginLimiter throttles login attempts per email.
func WithLoginLimiter(l ports.LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

// WithAuditSink records login outcomes and signups.
func WithAuditSink(sink ports.AuditSink) AuthOption {
	return func(s *AuthService) { s.audit = sink }
}

func NewAuthService(users ports.UserRepository, hasher *PasswordHasher, sessions *SessionIssuer, log zerolog.Logger, opts ...AuthOption) (*AuthService, error) {
	// Compared against when the email is unknown so both failure paths cost
	// one bcrypt verification.
	dummy, err := hasher.Hash("storefront-dummy-password")
	if err != nil {
		return nil, err
	}

	s := &AuthService{
		users:     users,
		hasher:    hasher,
		sessions:  sessions,
		audit:     noopSink{},
		log:       log,
		validate:  validator.New(),
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Signup creates a USER account. The stored email is the normalized key.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	email, name, err := checkAccountFields(s.validate, in.Email, in.Name, in.Password)
	if err != nil {
		return nil, err
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
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrUserExists) {
			s.log.Error().Err(err).Msg("signup: create user failed")
		}
		return nil, err
	}

	s.audit.Enqueue(domain.AuditEvent{ActorID: created.ID, Action: domain.AuditUserCreated, TargetID: created.ID, Detail: "signup", At: now})
	s.log.Info().Str("user_id", created.ID).Msg("user signed up")
	return created, nil
}

// Login checks the credentials and issues a session. Unknown email, wrong
// password and password-less accounts all yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return nil, domain.Invalid("email", "is required")
	}
	if password == "" {
		return nil, domain.Invalid("password", "is required")
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		} else if !allowed {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.audit.Enqueue(domain.AuditEvent{Action: domain.AuditLoginFailed, At: time.Now().UTC()})
			return nil, domain.ErrInvalidCredentials
		}
		s.log.Error().Err(err).Msg("login: find user failed")
		return nil, err
	}

	hash := user.PasswordHash
	if hash == "" {
		hash = s.dummyHash
	}
	if !s.hasher.Verify(password, hash) || user.PasswordHash == "" {
		s.audit.Enqueue(domain.AuditEvent{Action: domain.AuditLoginFailed, TargetID: user.ID, At: time.Now().UTC()})
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Issue(user)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("login: issue session failed")
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("login limiter reset failed")
		}
	}

	s.audit.Enqueue(domain.AuditEvent{ActorID: user.ID, Action: domain.AuditLoginSucceeded, TargetID: user.ID, At: time.Now().UTC()})
	s.log.Info().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("user logged in")
	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// checkAccountFields validates signup-style input and returns the normalized
// email and trimmed name.
func checkAccountFields(v *validator.Validate, email, name, password string) (string, string, error) {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return "", "", domain.Invalid("email", "is required")
	}
	if err := v.Var(key, "email"); err != nil {
		return "", "", domain.Invalid("email", "must be a valid email")
	}
	if password == "" {
		return "", "", domain.Invalid("password", "is required")
	}
	if len(password) < minPasswordLen {
		return "", "", domain.Invalid("password", "must be at least 8 characters")
	}
	if len(password) > maxPasswordLen {
		return "", "", domain.Invalid("password", "must be at most 72 bytes")
	}
	name = strings.TrimSpace(name)
	if len(name) > maxNameLen {
		return "", "", domain.Invalid("name", "must be at most 100 characters")
	}
	return key, name, nil
}

type noopSink struct{}

func (noopSink) Enqueue(domain.AuditEvent) {}
