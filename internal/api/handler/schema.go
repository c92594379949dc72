package handler

import (
	"time"

	"github.com/99minutos/storefront/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signupRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type accountResponse struct {
	User             *domain.User `json:"user"`
	SessionExpiresAt *time.Time   `json:"session_expires_at,omitempty"`
}

// --- Customers ---

type createCustomerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"omitempty,oneof=USER ADMIN SUPER_ADMIN"`
}

type updateCustomerRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
	Role *string `json:"role" validate:"omitempty,oneof=USER ADMIN SUPER_ADMIN"`
}

type customersResponse struct {
	Customers []*domain.User `json:"customers"`
}

// --- Categories ---

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type categoriesResponse struct {
	Categories []*domain.Category `json:"categories"`
}

// --- Audit ---

type auditResponse struct {
	Events []*domain.AuditEvent `json:"events"`
}
