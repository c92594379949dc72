package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/service"
)

const sessionKey = "session"

// SessionToken reads the raw session token from the session cookie, falling
// back to an "Authorization: Bearer" header, and attaches it to the request
// context. It never rejects a request; validation is left to the gate and the
// admin guard.
func SessionToken(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if token := extractToken(req, cookieName); token != "" {
				c.SetRequest(req.WithContext(service.WithSessionToken(req.Context(), token)))
			}
			return next(c)
		}
	}
}

func extractToken(r *http.Request, cookieName string) string {
	if ck, err := r.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	parts := strings.SplitN(r.Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SessionFrom returns the session validated by the Gate middleware, if any.
func SessionFrom(c echo.Context) (*domain.Session, bool) {
	sess, ok := c.Get(sessionKey).(*domain.Session)
	return sess, ok && sess != nil
}
