package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/storefront/docs"
	"github.com/99minutos/storefront/internal/api/handler"
	"github.com/99minutos/storefront/internal/api/middleware"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
	"github.com/99minutos/storefront/internal/core/service"
)

// Deps is everything the HTTP layer needs. It is assembled once in cmd/server.
type Deps struct {
	Log zerolog.Logger

	Auth       ports.AuthService
	Users      ports.UserService
	Categories ports.CategoryService
	Audit      ports.AuditService

	Sessions service.SessionValidator
	Gate     *service.Gate
	Guard    *service.Guard
	Cookie   handler.CookieConfig

	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handler.Check

	// Registry receives the HTTP request metrics. Nil means the default
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	promMW, err := echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Namespace:  "storefront",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, err
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(promMW)

	// --- Session token + request gate ---
	e.Use(middleware.SessionToken(d.Cookie.Name))
	e.Use(middleware.Gate(d.Gate, d.Sessions))

	// --- Public pages ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"service": "storefront"})
	})
	e.GET("/login", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "POST email and password to /login"})
	})

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Users, d.Cookie)
	e.POST("/signup", authHandler.Signup)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)
	e.GET("/account", authHandler.Account)

	// --- Admin routes (guarded again inside every service call) ---
	admin := e.Group("/admin", middleware.RequireRole(d.Guard, domain.RoleAdmin))

	customers := handler.NewCustomerHandler(d.Users)
	admin.GET("/customers", customers.List)
	admin.POST("/customers", customers.Create)
	admin.PATCH("/customers/:id", customers.Update)
	admin.DELETE("/customers/:id", customers.Delete)

	categories := handler.NewCategoryHandler(d.Categories)
	admin.GET("/categories", categories.List)
	admin.POST("/categories", categories.Create)
	admin.PATCH("/categories/:id", categories.Rename)
	admin.DELETE("/categories/:id", categories.Delete)

	audit := handler.NewAuditHandler(d.Audit)
	admin.GET("/audit", audit.List)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency.Round(time.Microsecond)).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
