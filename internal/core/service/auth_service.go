package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// LoginThrottle abstracts the failed-login counter (Redis).
type LoginThrottle interface {
	Blocked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// AuthService implements login and user provisioning.
type AuthService struct {
	repo        ports.AuthRepository
	credentials *CredentialStore
	tokens      *TokenIssuer
	throttle    LoginThrottle
	log         zerolog.Logger
}

// NewAuthService wires the credential store and token issuer. throttle may be
// nil, in which case failed logins are not counted.
func NewAuthService(
	repo ports.AuthRepository,
	credentials *CredentialStore,
	tokens *TokenIssuer,
	throttle LoginThrottle,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		credentials: credentials,
		tokens:      tokens,
		throttle:    throttle,
		log:         log,
	}
}

// Login authenticates username/password and issues a token. It fails with
// domain.ErrInvalidCredentials whether the user is unknown or the password
// is wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.IssuedToken, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		blocked, err := s.throttle.Blocked(ctx, username)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle check failed, continuing")
		} else if blocked {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.credentials.Authenticate(ctx, username, password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		s.recordFailure(ctx, username)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	issued, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().
		Str("username", user.Username).
		Strs("roles", issued.Roles).
		Time("expires_at", issued.ExpiresAt).
		Msg("token issued")
	return issued, nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	s.log.Warn().Str("username", username).Msg("login rejected")
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, username); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

// CreateUser provisions a user with a bcrypt-hashed password and the given roles.
func (s *AuthService) CreateUser(ctx context.Context, username, password string, roles []string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	roles = domain.NormalizeRoles(roles)
	if err := domain.ValidateRoles(roles); err != nil {
		return nil, err
	}

	hash, err := s.credentials.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("username", username).Strs("roles", roles).Msg("user created")
	return user, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if err := s.repo.Delete(ctx, username); err != nil {
		return err
	}
	s.log.Info().Str("username", username).Msg("user deleted")
	return nil
}

// GrantRole adds role to the user. Tokens issued earlier keep their old role
// set until they expire.
func (s *AuthService) GrantRole(ctx context.Context, username, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := domain.ValidateRoles([]string{role}); err != nil {
		return nil, err
	}
	if err := s.repo.AddRole(ctx, username, role); err != nil {
		return nil, err
	}
	s.log.Info().Str("username", username).Str("role", role).Msg("role granted")
	return s.repo.FindByUsername(ctx, username)
}

// RevokeRole removes role from the user. Outstanding tokens are not affected.
func (s *AuthService) RevokeRole(ctx context.Context, username, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := domain.ValidateRoles([]string{role}); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveRole(ctx, username, role); err != nil {
		return nil, err
	}
	s.log.Info().Str("username", username).Str("role", role).Msg("role revoked")
	return s.repo.FindByUsername(ctx, username)
}
