package domain

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Principal is the identity decoded from a valid token. Roles are the
// snapshot taken when the token was issued.
type Principal struct {
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	TokenID   string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

// IssuedToken is a signed token together with the claims it carries.
type IssuedToken struct {
	Token string
	Principal
}
