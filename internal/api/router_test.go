package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/api/handler"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/service"
)

// memUsers is a minimal in-memory credential store.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
	n     int
}

func (m *memUsers) find(email string) *domain.User {
	for _, u := range m.users {
		if u.Email == domain.NormalizeEmail(email) {
			return u
		}
	}
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.find(email); u != nil {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(u.Email) != nil {
		return nil, domain.ErrUserExists
	}
	m.n++
	c := *u
	c.ID = fmt.Sprintf("u%d", m.n)
	c.Email = domain.NormalizeEmail(c.Email)
	m.users[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memUsers) Upsert(ctx context.Context, u *domain.User) (*domain.User, error) {
	return m.Create(ctx, u)
}

func (m *memUsers) Update(_ context.Context, id string, upd domain.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

type memCategories struct{}

func (memCategories) List(context.Context) ([]*domain.Category, error) { return nil, nil }
func (memCategories) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	return c, nil
}
func (memCategories) Rename(context.Context, string, string, string) (*domain.Category, error) {
	return nil, domain.ErrCategoryNotFound
}
func (memCategories) Delete(context.Context, string) error { return domain.ErrCategoryNotFound }

type memAudit struct{}

func (memAudit) Insert(context.Context, *domain.AuditEvent) error { return nil }
func (memAudit) ListRecent(context.Context, int) ([]*domain.AuditEvent, error) {
	return nil, nil
}

type testServer struct {
	e      *echo.Echo
	users  *memUsers
	hasher *service.PasswordHasher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	users := &memUsers{users: map[string]*domain.User{}}
	hasher := service.NewPasswordHasher()

	issuer, err := service.NewSessionIssuer("router-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	rules, err := service.ParseGateRules(map[string]string{"/admin": "ADMIN", "/account": "USER"})
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	gate, err := service.NewGate(rules, "/login", "/")
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	guard := service.NewGuard(issuer, "/login", "/")

	auth, err := service.NewAuthService(users, hasher, issuer, log)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	e, err := NewRouter(Deps{
		Log:        log,
		Auth:       auth,
		Users:      service.NewUserService(users, hasher, guard, nil, log),
		Categories: service.NewCategoryService(memCategories{}, guard, nil, log),
		Audit:      service.NewAuditService(memAudit{}, guard, log),
		Sessions:   issuer,
		Gate:       gate,
		Guard:      guard,
		Cookie:     handler.CookieConfig{Name: "session"},
		Checks:     map[string]handler.Check{},
		Registry:   prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &testServer{e: e, users: users, hasher: hasher}
}

func (s *testServer) seed(t *testing.T, email, password string, role domain.Role) {
	t.Helper()
	hash, err := s.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := s.users.Create(context.Background(), &domain.User{Email: email, PasswordHash: hash, Role: role}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func (s *testServer) do(method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := s.do(http.MethodPost, "/login", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "session" {
			return ck
		}
	}
	t.Fatalf("login %s: no session cookie", email)
	return nil
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, target string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != target {
		t.Fatalf("expected redirect to %q, got %q", target, loc)
	}
}

func TestRouter_AnonymousAdminRedirectsToLogin(t *testing.T) {
	s := newTestServer(t)
	expectRedirect(t, s.do(http.MethodGet, "/admin/orders", ""), "/login")
	expectRedirect(t, s.do(http.MethodGet, "/account", ""), "/login")
}

func TestRouter_UserOnAdminRedirectsHome(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/signup", `{"email":"shopper@example.com","name":"Shopper","password":"shopper-pass"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	session := s.login(t, "shopper@example.com", "shopper-pass")

	expectRedirect(t, s.do(http.MethodGet, "/admin/orders", "", session), "/")
	expectRedirect(t, s.do(http.MethodGet, "/admin/customers", "", session), "/")

	if rec := s.do(http.MethodGet, "/account", "", session); rec.Code != http.StatusOK {
		t.Fatalf("account: expected 200, got %d", rec.Code)
	}
}

func TestRouter_AdminAllowed(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin@example.com", "admin-pass", domain.RoleAdmin)
	session := s.login(t, "admin@example.com", "admin-pass")

	if rec := s.do(http.MethodGet, "/admin/orders", "", session); rec.Code == http.StatusFound {
		t.Fatalf("admin must pass the gate, got redirect to %s", rec.Header().Get(echo.HeaderLocation))
	}
	if rec := s.do(http.MethodGet, "/admin/customers", "", session); rec.Code != http.StatusOK {
		t.Fatalf("customers: expected 200, got %d", rec.Code)
	}

	// the audit trail needs SUPER_ADMIN; the guard inside the action catches it
	expectRedirect(t, s.do(http.MethodGet, "/admin/audit", "", session), "/")
}

func TestRouter_BearerHeader(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "root@example.com", "root-pass1", domain.RoleSuperAdmin)
	session := s.login(t, "root@example.com", "root-pass1")

	req := httptest.NewRequest(http.MethodGet, "/admin/audit", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+session.Value)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin@example.com", "admin-pass", domain.RoleAdmin)

	for _, body := range []string{
		`{"email":"admin@example.com","password":"wrong-pass"}`,
		`{"email":"nobody@example.com","password":"wrong-pass"}`,
	} {
		rec := s.do(http.MethodPost, "/login", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"invalid credentials"`) {
			t.Fatalf("expected invalid credentials, got %s", rec.Body.String())
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("no session cookie may be set on failure")
		}
	}
}

func TestRouter_DuplicateSignup(t *testing.T) {
	s := newTestServer(t)
	body := `{"email":"dup@example.com","password":"first-pass"}`
	if rec := s.do(http.MethodPost, "/signup", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec := s.do(http.MethodPost, "/signup", `{"email":"DUP@example.com","password":"second-pass"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	// original credentials still work
	s.login(t, "dup@example.com", "first-pass")
}

func TestRouter_Observability(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := s.do(http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
