package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/ports"
)

type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List handles GET /admin/audit. Restricted to SUPER_ADMIN.
//
// @Summary      Recent audit events
// @Tags         audit
// @Produce      json
// @Security     SessionCookie
// @Param        limit  query     int  false  "Maximum events (default 50, max 200)"
// @Success      200    {object}  auditResponse
// @Failure      302
// @Router       /admin/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}
	events, err := h.service.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, auditResponse{Events: events})
}
