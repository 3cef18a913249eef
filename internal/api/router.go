package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/marina/marina-system/docs"
	"github.com/marina/marina-system/internal/api/handler"
	"github.com/marina/marina-system/internal/api/middleware"
	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// Dependencies are the services the router exposes over HTTP.
type Dependencies struct {
	Auth   ports.AuthService
	Tokens ports.TokenValidator
	Marina ports.MarinaService

	// Pingers are checked by the readiness probe, keyed by dependency name.
	Pingers map[string]handler.Pinger

	// Registry receives the HTTP metrics and serves /metrics. The default
	// Prometheus registry is used when nil.
	Registry *prometheus.Registry

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(prometheusMiddleware(deps.Registry))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Pingers)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Auth)
	ownerHandler := handler.NewOwnerHandler(deps.Marina)
	boatHandler := handler.NewBoatHandler(deps.Marina)
	harbourHandler := handler.NewHarbourHandler(deps.Marina)

	api := e.Group("/api")
	api.POST("/login", authHandler.Login)

	// Everything else needs a valid token; reads are open to both roles,
	// mutations to admins only.
	authed := api.Group("", middleware.Auth(deps.Tokens))
	reader := middleware.RBAC(domain.RoleUser, domain.RoleAdmin)
	admin := middleware.RBAC(domain.RoleAdmin)

	authed.GET("/me", authHandler.Me, reader)

	// --- Owners ---
	authed.GET("/owners", ownerHandler.List, reader)
	authed.GET("/owners/:id", ownerHandler.Get, reader)
	authed.GET("/owners/:id/boats", ownerHandler.Boats, reader)
	authed.POST("/owners", ownerHandler.Create, admin)
	authed.PUT("/owners/:id", ownerHandler.Update, admin)
	authed.DELETE("/owners/:id", ownerHandler.Delete, admin)

	// --- Boats ---
	authed.GET("/boats", boatHandler.List, reader)
	authed.GET("/boats/:id", boatHandler.Get, reader)
	authed.GET("/boats/:id/owners", boatHandler.Owners, reader)
	authed.POST("/boats", boatHandler.Create, admin)
	authed.PUT("/boats/:id", boatHandler.Update, admin)
	authed.DELETE("/boats/:id", boatHandler.Delete, admin)
	authed.PUT("/boats/:id/owners/:ownerId", boatHandler.LinkOwner, admin)
	authed.DELETE("/boats/:id/owners/:ownerId", boatHandler.UnlinkOwner, admin)
	authed.PUT("/boats/:id/harbour/:harbourId", boatHandler.AssignHarbour, admin)
	authed.DELETE("/boats/:id/harbour", boatHandler.ReleaseHarbour, admin)

	// --- Harbours ---
	authed.GET("/harbours", harbourHandler.List, reader)
	authed.GET("/harbours/:id", harbourHandler.Get, reader)
	authed.GET("/harbours/:id/boats", harbourHandler.Boats, reader)
	authed.POST("/harbours", harbourHandler.Create, admin)
	authed.PUT("/harbours/:id", harbourHandler.Update, admin)
	authed.DELETE("/harbours/:id", harbourHandler.Delete, admin)

	// --- Users ---
	authed.POST("/users", userHandler.Create, admin)
	authed.DELETE("/users/:username", userHandler.Delete, admin)
	authed.PUT("/users/:username/roles/:role", userHandler.GrantRole, admin)
	authed.DELETE("/users/:username/roles/:role", userHandler.RevokeRole, admin)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			level := zerolog.InfoLevel
			if v.Error != nil {
				level = zerolog.WarnLevel
			}
			log.WithLevel(level).
				Err(v.Error).
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

func prometheusMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "marina",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
