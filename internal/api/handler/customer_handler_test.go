package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

func TestCustomerHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
			if in.Email != "new@example.com" || in.Role != domain.RoleAdmin {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u9", Email: in.Email, Role: in.Role}, nil
		},
	}
	handler := NewCustomerHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/admin/customers", `{"email":"new@example.com","password":"pass1234","role":"ADMIN"}`), rec)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestCustomerHandler_Create_UnknownRole(t *testing.T) {
	e := newTestEcho()
	handler := NewCustomerHandler(&stubUserService{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/admin/customers", `{"email":"new@example.com","password":"pass1234","role":"OWNER"}`), httptest.NewRecorder())

	var verr *domain.ValidationError
	if err := handler.Create(c); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCustomerHandler_Update(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
			if id != "u2" || in.Role == nil || *in.Role != domain.RoleUser || in.Name != nil {
				t.Fatalf("unexpected update %s %+v", id, in)
			}
			return &domain.User{ID: id, Role: *in.Role}, nil
		},
	}
	handler := NewCustomerHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/admin/customers/u2", `{"role":"USER"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("u2")

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCustomerHandler_Delete_Forbidden(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, id string) error { return domain.ErrForbidden },
	}
	handler := NewCustomerHandler(stub)

	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/admin/customers/u1", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("u1")

	if err := handler.Delete(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCustomerHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		listFn: func(ctx context.Context) ([]*domain.User, error) {
			return []*domain.User{
				{ID: "u1", Email: "a@example.com", Role: domain.RoleUser},
				{ID: "u2", Email: "b@example.com", Role: domain.RoleAdmin},
			}, nil
		},
	}
	handler := NewCustomerHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/customers", nil), rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp customersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(resp.Customers))
	}
	if !strings.Contains(rec.Body.String(), `"role":"ADMIN"`) {
		t.Fatalf("expected role name in body, got %s", rec.Body.String())
	}
}

type stubAuditService struct {
	limit int
}

func (s *stubAuditService) Record(context.Context, domain.AuditEvent) error { return nil }

func (s *stubAuditService) ListRecent(_ context.Context, limit int) ([]*domain.AuditEvent, error) {
	s.limit = limit
	return []*domain.AuditEvent{{Action: domain.AuditUserDeleted}}, nil
}

func TestAuditHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuditService{}
	handler := NewAuditHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/audit?limit=5", nil), rec)
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.limit != 5 {
		t.Fatalf("expected limit 5, got %d", stub.limit)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/audit?limit=abc", nil), httptest.NewRecorder())
	var he *echo.HTTPError
	if err := handler.List(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-numeric limit, got %v", err)
	}
}
