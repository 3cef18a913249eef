package ports

import (
	"context"

	"github.com/marina/marina-system/internal/core/domain"
)

// AuthRepository is the credential store's persistence: users with their
// password hashes and role names.
type AuthRepository interface {
	// FindByUsername returns the user with its roles, or domain.ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create stores a new user and its roles. Returns domain.ErrUserExists when
	// the username is taken.
	Create(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, username string) error
	AddRole(ctx context.Context, username, role string) error
	RemoveRole(ctx context.Context, username, role string) error
}
