package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/service"
)

// RequireRole guards a route group with the admin guard, independently of the
// configured gate rules. A failed check is returned as a *domain.RedirectError
// for the HTTP error handler to apply.
func RequireRole(guard *service.Guard, min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, d := guard.Require(c.Request().Context(), min); !d.Allowed() {
				return d.Err()
			}
			return next(c)
		}
	}
}
