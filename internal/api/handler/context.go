package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/marina/marina-system/internal/api/middleware"
	"github.com/marina/marina-system/internal/core/domain"
)

// ctxPrincipal returns the principal injected by the Auth middleware. Its
// absence means the route was registered without the gate.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return nil, fmt.Errorf("%w: missing authentication claims", domain.ErrUnauthenticated)
	}
	return p, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
// Failures wrap domain.ErrValidation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}
