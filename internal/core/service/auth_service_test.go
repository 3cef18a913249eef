package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/marina/marina-system/internal/core/domain"
)

type stubAuthRepo struct {
	users     map[string]*domain.User
	lookups   int
	createErr error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = slices.Clone(u.Roles)
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.users[user.Username]; exists {
		return domain.ErrUserExists
	}
	r.users[user.Username] = cloneUser(user)
	return nil
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.lookups++
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubAuthRepo) Delete(_ context.Context, username string) error {
	if _, ok := r.users[username]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, username)
	return nil
}

func (r *stubAuthRepo) AddRole(_ context.Context, username, role string) error {
	u, ok := r.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Roles = domain.NormalizeRoles(append(u.Roles, role))
	return nil
}

func (r *stubAuthRepo) RemoveRole(_ context.Context, username, role string) error {
	u, ok := r.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Roles = slices.DeleteFunc(u.Roles, func(r string) bool { return r == role })
	return nil
}

// stubThrottle blocks a username once it reaches limit failures.
type stubThrottle struct {
	failures map[string]int
	limit    int
	err      error
}

func newStubThrottle(limit int) *stubThrottle {
	return &stubThrottle{failures: make(map[string]int), limit: limit}
}

func (t *stubThrottle) Blocked(_ context.Context, username string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.failures[username] >= t.limit, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, username string) error {
	if t.err != nil {
		return t.err
	}
	t.failures[username]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, username string) error {
	delete(t.failures, username)
	return nil
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAuthService(throttle LoginThrottle) (*AuthService, *stubAuthRepo, *testclock.Clock) {
	repo := newStubAuthRepo()
	clk := testclock.NewClock(testEpoch)
	creds := NewCredentialStore(repo, bcrypt.MinCost)
	tokens := NewTokenIssuer("secret", "marina", time.Hour, clk)
	if throttle == nil {
		return NewAuthService(repo, creds, tokens, nil, zerolog.Nop()), repo, clk
	}
	return NewAuthService(repo, creds, tokens, throttle, zerolog.Nop()), repo, clk
}

func TestAuthService_CreateUser_HashesPassword(t *testing.T) {
	svc, repo, _ := newTestAuthService(nil)

	user, err := svc.CreateUser(context.Background(), "user_admin", "test3", []string{"admin", "user", "admin"})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	stored := repo.users["user_admin"]
	if stored.PasswordHash == "test3" {
		t.Fatal("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("test3")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !slices.Equal(user.Roles, []string{"admin", "user"}) {
		t.Fatalf("unexpected roles: %v", user.Roles)
	}
}

func TestAuthService_CreateUser_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "  ", "pass", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank username, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, "bob", "", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank password, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, "bob", "pass", []string{"captain"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
}

func TestAuthService_CreateUser_Duplicate(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)
	ctx := context.Background()

	_, _ = svc.CreateUser(ctx, "bob", "pass", []string{domain.RoleUser})
	if _, err := svc.CreateUser(ctx, "bob", "pass2", nil); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "admin", "test2", []string{domain.RoleAdmin}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	issued, err := svc.Login(ctx, "admin", "test2")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if issued.Token == "" {
		t.Fatal("expected token, got empty")
	}
	if issued.Username != "admin" || !slices.Equal(issued.Roles, []string{domain.RoleAdmin}) {
		t.Fatalf("unexpected principal: %+v", issued.Principal)
	}
	if want := testEpoch.Add(time.Hour); !issued.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at: got %v want %v", issued.ExpiresAt, want)
	}

	p, err := svc.tokens.Validate(issued.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if p.Username != "admin" {
		t.Fatalf("unexpected subject %q", p.Username)
	}
}

func TestAuthService_Login_TrimsUsernameLikeCreate(t *testing.T) {
	svc, repo, _ := newTestAuthService(nil)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, " admin", "test2", []string{domain.RoleAdmin}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, ok := repo.users["admin"]; !ok {
		t.Fatalf("expected user stored as %q, got %v", "admin", repo.users)
	}

	for _, name := range []string{" admin", "admin ", "admin"} {
		issued, err := svc.Login(ctx, name, "test2")
		if err != nil {
			t.Fatalf("login as %q: %v", name, err)
		}
		if issued.Username != "admin" {
			t.Fatalf("login as %q: token subject %q", name, issued.Username)
		}
	}

	if _, err := svc.GrantRole(ctx, " admin ", domain.RoleUser); err != nil {
		t.Fatalf("grant with padded username: %v", err)
	}
}

func TestAuthService_Login_SameErrorForUnknownUserAndWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, "user", "test1", []string{domain.RoleUser})

	_, wrongPassword := svc.Login(ctx, "user", "nope")
	_, unknownUser := svc.Login(ctx, "ghost", "test1")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("error messages differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestAuthService_Login_BlankInputSkipsLookup(t *testing.T) {
	svc, repo, _ := newTestAuthService(nil)

	if _, err := svc.Login(context.Background(), "", "x"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if repo.lookups != 0 {
		t.Fatalf("expected no repository lookup, got %d", repo.lookups)
	}
}

func TestAuthService_Login_Throttled(t *testing.T) {
	throttle := newStubThrottle(2)
	svc, _, _ := newTestAuthService(throttle)
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, "user", "test1", []string{domain.RoleUser})

	_, _ = svc.Login(ctx, "user", "bad")
	_, _ = svc.Login(ctx, "user", "bad")

	if _, err := svc.Login(ctx, "user", "test1"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthService_Login_SuccessResetsThrottle(t *testing.T) {
	throttle := newStubThrottle(3)
	svc, _, _ := newTestAuthService(throttle)
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, "user", "test1", []string{domain.RoleUser})

	_, _ = svc.Login(ctx, "user", "bad")
	if _, err := svc.Login(ctx, "user", "test1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if n := throttle.failures["user"]; n != 0 {
		t.Fatalf("expected failures reset, got %d", n)
	}
}

func TestAuthService_Login_ThrottleErrorDoesNotBlock(t *testing.T) {
	throttle := newStubThrottle(1)
	throttle.err = errors.New("redis down")
	svc, _, _ := newTestAuthService(throttle)
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, "user", "test1", []string{domain.RoleUser})

	if _, err := svc.Login(ctx, "user", "test1"); err != nil {
		t.Fatalf("login should survive a throttle outage, got %v", err)
	}
}

func TestAuthService_GrantAndRevokeRole(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, "user", "test1", []string{domain.RoleUser})

	user, err := svc.GrantRole(ctx, "user", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if !user.HasRole(domain.RoleAdmin) {
		t.Fatalf("expected admin role, got %v", user.Roles)
	}

	user, err = svc.RevokeRole(ctx, "user", domain.RoleUser)
	if err != nil {
		t.Fatalf("RevokeRole: %v", err)
	}
	if user.HasRole(domain.RoleUser) {
		t.Fatalf("user role still present: %v", user.Roles)
	}

	if _, err := svc.GrantRole(ctx, "user", "captain"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
	if _, err := svc.GrantRole(ctx, "ghost", domain.RoleUser); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_TokenKeepsRoleSnapshot(t *testing.T) {
	svc, _, _ := newTestAuthService(nil)
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, "user", "test1", []string{domain.RoleUser})

	issued, err := svc.Login(ctx, "user", "test1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := svc.GrantRole(ctx, "user", domain.RoleAdmin); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}

	p, err := svc.tokens.Validate(issued.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p.HasAnyRole(domain.RoleAdmin) {
		t.Fatal("token issued before the grant must not carry the new role")
	}
}
