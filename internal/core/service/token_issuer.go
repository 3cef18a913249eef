package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/marina/marina-system/internal/core/domain"
)

const defaultTokenTTL = 30 * time.Minute

// tokenClaims is the JWT payload: the registered claims plus the role
// snapshot taken at login.
type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 tokens. It keeps no session state:
// a token is valid while its signature checks out and it has not expired.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration, clk clock.Clock) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, clock: clk}
}

// Issue signs a token for user carrying the roles it holds right now.
func (ti *TokenIssuer) Issue(user *domain.User) (*domain.IssuedToken, error) {
	now := ti.clock.Now().UTC().Truncate(time.Second)
	principal := domain.Principal{
		Username:  user.Username,
		Roles:     RolesOf(user),
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(ti.ttl),
	}

	claims := tokenClaims{
		Roles: principal.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   principal.Username,
			ID:        principal.TokenID,
			IssuedAt:  jwt.NewNumericDate(principal.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(principal.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &domain.IssuedToken{Token: signed, Principal: principal}, nil
}

// Validate checks the signature first and the expiry second, so a tampered
// token is reported as invalid whatever its timestamps say.
func (ti *TokenIssuer) Validate(raw string) (*domain.Principal, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing subject or expiry", domain.ErrInvalidToken)
	}
	if ti.issuer != "" && claims.Issuer != ti.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", domain.ErrInvalidToken, claims.Issuer)
	}
	if ti.clock.Now().After(claims.ExpiresAt.Time) {
		return nil, domain.ErrExpiredToken
	}

	p := &domain.Principal{
		Username:  claims.Subject,
		Roles:     domain.NormalizeRoles(claims.Roles),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return p, nil
}
