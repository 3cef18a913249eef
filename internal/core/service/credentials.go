package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// dummyHash is compared against when a username is unknown, so a miss costs
// the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("marina-unknown-user"), bcrypt.DefaultCost)
	return h
})

// CredentialStore looks users up and checks their passwords.
type CredentialStore struct {
	repo ports.AuthRepository
	cost int
}

// NewCredentialStore returns a store hashing new passwords with the given
// bcrypt cost. Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewCredentialStore(repo ports.AuthRepository, cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{repo: repo, cost: cost}
}

func (s *CredentialStore) FindUser(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// VerifyPassword reports whether plaintext matches the user's salted hash.
// A nil user is never verified but still pays for one comparison.
func (s *CredentialStore) VerifyPassword(user *domain.User, plaintext string) bool {
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plaintext))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plaintext)) == nil
}

// HashPassword returns the bcrypt hash stored for a new password.
func (s *CredentialStore) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate returns the user when username and password match. Unknown
// users and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.FindUser(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.VerifyPassword(nil, password)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.VerifyPassword(user, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// RolesOf returns the user's role names, sorted and de-duplicated.
func RolesOf(user *domain.User) []string {
	return domain.NormalizeRoles(user.Roles)
}
