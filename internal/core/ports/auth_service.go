package ports

import (
	"context"

	"github.com/marina/marina-system/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.IssuedToken, error)
	CreateUser(ctx context.Context, username, password string, roles []string) (*domain.User, error)
	DeleteUser(ctx context.Context, username string) error
	GrantRole(ctx context.Context, username, role string) (*domain.User, error)
	RevokeRole(ctx context.Context, username, role string) (*domain.User, error)
}

// TokenValidator decodes a bearer token into the principal it was issued to.
// It returns domain.ErrInvalidToken or domain.ErrExpiredToken on failure.
type TokenValidator interface {
	Validate(token string) (*domain.Principal, error)
}
