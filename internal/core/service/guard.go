package service

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

type sessionTokenKey struct{}

// WithSessionToken attaches the raw, unvalidated session token of the
// current request to ctx.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey{}, token)
}

// SessionTokenFrom returns the raw token attached by WithSessionToken.
func SessionTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenKey{}).(string)
	return token
}

// SessionValidator is satisfied by *SessionIssuer.
type SessionValidator interface {
	Validate(token string) (domain.Session, error)
}

// Guard is the in-action role check. It validates the session token again on
// its own so that a privileged operation stays protected when it is reached
// without passing the request gate.
type Guard struct {
	sessions   SessionValidator
	loginPath  string
	deniedPath string
}

func NewGuard(sessions SessionValidator, loginPath, deniedPath string) *Guard {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	if deniedPath == "" {
		deniedPath = DefaultDeniedPath
	}
	return &Guard{sessions: sessions, loginPath: loginPath, deniedPath: deniedPath}
}

// Require returns the caller's session and Allow when it holds at least min.
// Otherwise it returns a redirect: to the login page when there is no valid
// session, to the denied page when the role is insufficient.
func (g *Guard) Require(ctx context.Context, min domain.Role) (domain.Session, domain.Decision) {
	sess, err := g.sessions.Validate(SessionTokenFrom(ctx))
	if err != nil {
		return domain.Session{}, g.LoginRedirect()
	}
	if !sess.Role.AtLeast(min) {
		return domain.Session{}, domain.RedirectTo(g.deniedPath)
	}
	return sess, domain.Allow()
}

// LoginRedirect sends the caller back to the login page.
func (g *Guard) LoginRedirect() domain.Decision {
	return domain.RedirectTo(g.loginPath)
}
