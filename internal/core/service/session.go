package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/storefront/internal/core/domain"
)

const defaultSessionTTL = 24 * time.Hour

// sessionClaims is the JWT payload. The subject carries the user id.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and validates stateless HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type SessionOption func(*SessionIssuer)

// WithIssuerName sets the iss claim written and required on validation.
func WithIssuerName(name string) SessionOption {
	return func(s *SessionIssuer) { s.issuer = name }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionIssuer) { s.now = now }
}

func NewSessionIssuer(secret string, ttl time.Duration, opts ...SessionOption) (*SessionIssuer, error) {
	if secret == "" {
		return nil, errors.New("session issuer: empty signing secret")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	s := &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the lifetime of newly issued tokens.
func (s *SessionIssuer) TTL() time.Duration { return s.ttl }

// Issue signs a token for user that expires after the configured TTL.
func (s *SessionIssuer) Issue(user *domain.User) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, errors.New("issue session: user without id")
	}
	if !user.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue session: invalid role %d", user.Role)
	}

	now := s.now()
	claims := sessionClaims{
		Role: user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue session: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Validate verifies the signature, algorithm, expiry and payload of token.
// Every failure wraps domain.ErrInvalidSession.
func (s *SessionIssuer) Validate(token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, fmt.Errorf("%w: empty token", domain.ErrInvalidSession)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims sessionClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}

	if claims.Subject == "" {
		return domain.Session{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidSession)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}

	sess := domain.Session{
		UserID:    claims.Subject,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	return sess, nil
}
