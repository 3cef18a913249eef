package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marina/marina-system/internal/api/metrics"
	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// Context keys set by Auth.
const (
	KeyPrincipal = "principal"
	KeyUsername  = "username"
	KeyRoles     = "roles"
)

// Auth validates the bearer token and injects the principal into context.
// Every failure is returned as domain.ErrUnauthenticated for the central
// error handler.
func Auth(tokens ports.TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return fmt.Errorf("%w: missing authorization header", domain.ErrUnauthenticated)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthenticated)
			}

			principal, err := tokens.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, domain.ErrExpiredToken) {
					metrics.AuthRejectionsTotal.WithLabelValues("expired_token").Inc()
					return fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
				}
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
			}

			c.Set(KeyPrincipal, principal)
			c.Set(KeyUsername, principal.Username)
			c.Set(KeyRoles, principal.Roles)

			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by Auth, or nil.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(KeyPrincipal).(*domain.Principal)
	return p
}
