package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/api/metrics"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/service"
)

// Gate applies the request gate to every request. The token attached by
// SessionToken is validated locally; a redirect decision short-circuits with
// 302, otherwise the validated session is stored on the echo context.
func Gate(gate *service.Gate, sessions service.SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			var sess *domain.Session
			if token := service.SessionTokenFrom(req.Context()); token != "" {
				if s, err := sessions.Validate(token); err == nil {
					sess = &s
				}
			}

			d := gate.Decide(req.URL.Path, sess)
			if gate.Protected(req.URL.Path) {
				metrics.GateDecisionsTotal.WithLabelValues(outcomeLabel(d, sess)).Inc()
			}
			if !d.Allowed() {
				return c.Redirect(http.StatusFound, d.Target)
			}
			if sess != nil {
				c.Set(sessionKey, sess)
			}
			return next(c)
		}
	}
}

func outcomeLabel(d domain.Decision, sess *domain.Session) string {
	switch {
	case d.Allowed():
		return "allow"
	case sess == nil:
		return "login"
	default:
		return "denied"
	}
}
