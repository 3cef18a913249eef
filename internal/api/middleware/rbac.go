package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marina/marina-system/internal/api/metrics"
	"github.com/marina/marina-system/internal/core/domain"
)

// RBAC lets the request through when the principal holds at least one of
// allowedRoles. It must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	required := strings.Join(allowedRoles, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := PrincipalFrom(c)
			if principal == nil {
				return fmt.Errorf("%w: missing authentication claims", domain.ErrUnauthenticated)
			}
			if !principal.HasAnyRole(allowedRoles...) {
				metrics.AuthRejectionsTotal.WithLabelValues("forbidden").Inc()
				return fmt.Errorf("%w: requires one of [%s]", domain.ErrForbidden, required)
			}
			return next(c)
		}
	}
}
