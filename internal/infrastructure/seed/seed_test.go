package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/marina/marina-system/internal/core/service"
	"github.com/marina/marina-system/internal/infrastructure/db/sqlite"
)

const fixture = `
users:
  - username: user
    password: test1
    roles: [user]
  - username: user_admin
    password: test3
    roles: [user, admin]
owners:
  - key: bent
    name: Skipper Bænt
    address: Persillehaven 40
    phone: "38383838"
  - key: niels
    name: Skipper Niels
    address: Persillehaven 42
    phone: "39393939"
harbours:
  - key: melsted
    name: Melsted Havn
    address: Melsted byvej
    capacity: 8
boats:
  - key: boatmaster
    name: Boatmaster
    type: speeder
    captain: Martha
    owners: [bent]
    harbour: melsted
  - key: das-boot
    name: Das Boot
    type: submarine
    captain: Aase
    owners: [bent, niels]
`

func newServices(t *testing.T) (*service.AuthService, *service.MarinaService) {
	t.Helper()

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "seed_test.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	authRepo := sqlite.NewAuthRepository(db)
	auth := service.NewAuthService(
		authRepo,
		service.NewCredentialStore(authRepo, bcrypt.MinCost),
		service.NewTokenIssuer("seed-secret", "marina-test", time.Hour, nil),
		nil,
		zerolog.Nop(),
	)
	return auth, service.NewMarinaService(sqlite.NewMarinaRepository(db), zerolog.Nop())
}

func TestApply(t *testing.T) {
	f, err := Decode([]byte(fixture))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	auth, marina := newServices(t)
	ctx := context.Background()

	if err := Apply(ctx, f, auth, marina, zerolog.Nop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	issued, err := auth.Login(ctx, "user_admin", "test3")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !issued.HasAnyRole("admin") || !issued.HasAnyRole("user") {
		t.Fatalf("unexpected roles: %v", issued.Roles)
	}

	boats, _ := marina.ListBoats(ctx)
	if len(boats) != 2 {
		t.Fatalf("expected 2 boats, got %d", len(boats))
	}
	harbours, _ := marina.ListHarbours(ctx)
	if len(harbours) != 1 || len(harbours[0].BoatIDs) != 1 {
		t.Fatalf("unexpected harbours: %+v", harbours)
	}
	berthed, _ := marina.BoatsInHarbour(ctx, harbours[0].ID)
	if len(berthed) != 1 || berthed[0].Name != "Boatmaster" {
		t.Fatalf("unexpected berthed boats: %+v", berthed)
	}

	owners, _ := marina.ListOwners(ctx)
	for _, o := range owners {
		if o.Name == "Skipper Bænt" && len(o.BoatIDs) != 2 {
			t.Fatalf("Skipper Bænt owns %d boats", len(o.BoatIDs))
		}
	}
}

func TestApply_Twice(t *testing.T) {
	f, _ := Decode([]byte(fixture))
	auth, marina := newServices(t)
	ctx := context.Background()

	for i := range 2 {
		if err := Apply(ctx, f, auth, marina, zerolog.Nop()); err != nil {
			t.Fatalf("Apply #%d: %v", i+1, err)
		}
	}

	boats, _ := marina.ListBoats(ctx)
	if len(boats) != 2 {
		t.Fatalf("expected 2 boats after reseeding, got %d", len(boats))
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"malformed yaml", "users: [", "parse seed file"},
		{"unknown owner", "boats:\n  - name: B\n    owners: [nobody]\n", "unknown owner"},
		{"unknown harbour", "boats:\n  - name: B\n    harbour: nowhere\n", "unknown harbour"},
		{"duplicate key", "owners:\n  - key: a\n  - key: a\n", "duplicated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Users) != 2 || len(f.Boats) != 2 || f.Boats[1].Owners[1] != "niels" {
		t.Fatalf("unexpected file: %+v", f)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
