package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// CustomerHandler exposes admin customer management. Authorization is
// enforced inside the user service.
type CustomerHandler struct {
	service ports.UserService
}

func NewCustomerHandler(service ports.UserService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// List handles GET /admin/customers.
//
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  customersResponse
// @Failure      302
// @Router       /admin/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customersResponse{Customers: users})
}

// Create handles POST /admin/customers.
//
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body      createCustomerRequest  true  "Customer"
// @Success      201   {object}  domain.User
// @Failure      302
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	var req createCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := ports.CreateUserInput{Email: req.Email, Name: req.Name, Password: req.Password}
	if req.Role != "" {
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			return domain.Invalid("role", "is not a known role")
		}
		in.Role = role
	}

	user, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Update handles PATCH /admin/customers/:id.
//
// @Summary      Update a customer's name or role
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        id    path      string                 true  "Customer id"
// @Param        body  body      updateCustomerRequest  true  "Changes"
// @Success      200   {object}  domain.User
// @Failure      302
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/customers/{id} [patch]
func (h *CustomerHandler) Update(c echo.Context) error {
	var req updateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := ports.UpdateUserInput{Name: req.Name}
	if req.Role != nil {
		role, err := domain.ParseRole(*req.Role)
		if err != nil {
			return domain.Invalid("role", "is not a known role")
		}
		in.Role = &role
	}

	user, err := h.service.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /admin/customers/:id.
//
// @Summary      Delete a customer
// @Tags         customers
// @Security     SessionCookie
// @Param        id  path  string  true  "Customer id"
// @Success      204
// @Failure      302
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
