package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// KnownRoles lists every role the credential store holds.
var KnownRoles = []string{RoleUser, RoleAdmin}

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrUserExists         = errors.New("user already exists")
	ErrRoleNotFound       = fmt.Errorf("role %w", ErrNotFound)
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

// User models an authenticated actor in the system.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user currently holds role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// IsKnownRole reports whether name is one of KnownRoles.
func IsKnownRole(name string) bool {
	return slices.Contains(KnownRoles, name)
}

// NormalizeRoles returns a sorted copy of roles without duplicates or blanks.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// ValidateRoles rejects any role the store does not know about.
func ValidateRoles(roles []string) error {
	for _, r := range roles {
		if !IsKnownRole(r) {
			return fmt.Errorf("%w: unknown role %q", ErrValidation, r)
		}
	}
	return nil
}
