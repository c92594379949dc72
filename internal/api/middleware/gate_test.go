package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/service"
)

func newIssuer(t *testing.T) *service.SessionIssuer {
	t.Helper()
	issuer, err := service.NewSessionIssuer("middleware-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return issuer
}

func tokenFor(t *testing.T, issuer *service.SessionIssuer, role domain.Role) string {
	t.Helper()
	token, _, err := issuer.Issue(&domain.User{ID: "u-" + role.String(), Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func newGateEcho(t *testing.T, issuer *service.SessionIssuer) *echo.Echo {
	t.Helper()
	gate, err := service.NewGate([]service.GateRule{
		{Prefix: "/admin", MinRole: domain.RoleAdmin},
	}, "/login", "/")
	if err != nil {
		t.Fatalf("gate: %v", err)
	}

	e := echo.New()
	e.Use(SessionToken("session"), Gate(gate, issuer))
	handler := func(c echo.Context) error {
		if sess, ok := SessionFrom(c); ok {
			return c.String(http.StatusOK, sess.Role.String())
		}
		return c.String(http.StatusOK, "anonymous")
	}
	e.GET("/admin/orders", handler)
	e.GET("/products", handler)
	return e
}

func TestGate_Scenarios(t *testing.T) {
	issuer := newIssuer(t)
	e := newGateEcho(t, issuer)

	cases := []struct {
		name     string
		path     string
		token    string
		code     int
		location string
		body     string
	}{
		{"anonymous admin path", "/admin/orders", "", http.StatusFound, "/login", ""},
		{"invalid token", "/admin/orders", "garbage", http.StatusFound, "/login", ""},
		{"user on admin path", "/admin/orders", tokenFor(t, issuer, domain.RoleUser), http.StatusFound, "/", ""},
		{"admin allowed", "/admin/orders", tokenFor(t, issuer, domain.RoleAdmin), http.StatusOK, "", "ADMIN"},
		{"super admin allowed", "/admin/orders", tokenFor(t, issuer, domain.RoleSuperAdmin), http.StatusOK, "", "SUPER_ADMIN"},
		{"public path anonymous", "/products", "", http.StatusOK, "", "anonymous"},
		{"public path with session", "/products", tokenFor(t, issuer, domain.RoleUser), http.StatusOK, "", "USER"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tc.token})
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if loc := rec.Header().Get(echo.HeaderLocation); loc != tc.location {
				t.Fatalf("expected location %q, got %q", tc.location, loc)
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, rec.Body.String())
			}
		})
	}
}

func TestOutcomeLabel(t *testing.T) {
	sess := &domain.Session{Role: domain.RoleUser}
	if outcomeLabel(domain.Allow(), sess) != "allow" {
		t.Fatalf("expected allow")
	}
	if outcomeLabel(domain.RedirectTo("/login"), nil) != "login" {
		t.Fatalf("expected login")
	}
	if outcomeLabel(domain.RedirectTo("/"), sess) != "denied" {
		t.Fatalf("expected denied")
	}
}
