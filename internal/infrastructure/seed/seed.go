// Package seed provisions users and marina data from a YAML file at startup.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// File is the seed document. Owners, harbours and boats carry a local key
// that boats use to refer to their owners and harbour; stored ids are
// generated when the entities are created.
type File struct {
	Users    []User    `yaml:"users"`
	Owners   []Owner   `yaml:"owners"`
	Harbours []Harbour `yaml:"harbours"`
	Boats    []Boat    `yaml:"boats"`
}

type User struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

type Owner struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}

type Harbour struct {
	Key      string `yaml:"key"`
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Capacity int    `yaml:"capacity"`
}

type Boat struct {
	Key      string   `yaml:"key"`
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Captain  string   `yaml:"captain"`
	ImageURL string   `yaml:"image_url"`
	Owners   []string `yaml:"owners"`
	Harbour  string   `yaml:"harbour"`
}

// UserProvisioner creates credential records.
type UserProvisioner interface {
	CreateUser(ctx context.Context, username, password string, roles []string) (*domain.User, error)
}

// Load reads and decodes a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Decode(data)
}

// Decode parses a seed document and checks that every reference resolves.
func Decode(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	owners := make(map[string]bool, len(f.Owners))
	for _, o := range f.Owners {
		if o.Key == "" || owners[o.Key] {
			return fmt.Errorf("seed: owner key %q is empty or duplicated", o.Key)
		}
		owners[o.Key] = true
	}
	harbours := make(map[string]bool, len(f.Harbours))
	for _, h := range f.Harbours {
		if h.Key == "" || harbours[h.Key] {
			return fmt.Errorf("seed: harbour key %q is empty or duplicated", h.Key)
		}
		harbours[h.Key] = true
	}
	for _, b := range f.Boats {
		for _, o := range b.Owners {
			if !owners[o] {
				return fmt.Errorf("seed: boat %q refers to unknown owner %q", b.Name, o)
			}
		}
		if b.Harbour != "" && !harbours[b.Harbour] {
			return fmt.Errorf("seed: boat %q refers to unknown harbour %q", b.Name, b.Harbour)
		}
	}
	return nil
}

// Apply creates the seeded users and marina data through the services, so
// every domain rule applies to seeded data as well. Users that already exist
// are left untouched. Marina data is only seeded into an empty store.
func Apply(ctx context.Context, f *File, users UserProvisioner, marina ports.MarinaService, log zerolog.Logger) error {
	for _, u := range f.Users {
		_, err := users.CreateUser(ctx, u.Username, u.Password, u.Roles)
		switch {
		case errors.Is(err, domain.ErrUserExists):
			log.Debug().Str("username", u.Username).Msg("seed user already exists")
		case err != nil:
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		default:
			log.Info().Str("username", u.Username).Strs("roles", u.Roles).Msg("seeded user")
		}
	}

	empty, err := storeIsEmpty(ctx, marina)
	if err != nil {
		return err
	}
	if !empty {
		log.Info().Msg("marina store already populated, skipping marina seed")
		return nil
	}

	ownerIDs := make(map[string]string, len(f.Owners))
	for _, o := range f.Owners {
		created, err := marina.CreateOwner(ctx, ports.OwnerInput{Name: o.Name, Address: o.Address, Phone: o.Phone})
		if err != nil {
			return fmt.Errorf("seed owner %q: %w", o.Key, err)
		}
		ownerIDs[o.Key] = created.ID
	}

	harbourIDs := make(map[string]string, len(f.Harbours))
	for _, h := range f.Harbours {
		created, err := marina.CreateHarbour(ctx, ports.HarbourInput{Name: h.Name, Address: h.Address, Capacity: h.Capacity})
		if err != nil {
			return fmt.Errorf("seed harbour %q: %w", h.Key, err)
		}
		harbourIDs[h.Key] = created.ID
	}

	for _, b := range f.Boats {
		created, err := marina.CreateBoat(ctx, ports.BoatInput{Name: b.Name, Type: b.Type, Captain: b.Captain, ImageURL: b.ImageURL})
		if err != nil {
			return fmt.Errorf("seed boat %q: %w", b.Name, err)
		}
		for _, o := range b.Owners {
			if _, err := marina.LinkBoatToOwner(ctx, created.ID, ownerIDs[o]); err != nil {
				return fmt.Errorf("seed boat %q owner %q: %w", b.Name, o, err)
			}
		}
		if b.Harbour != "" {
			if _, err := marina.AssignBoatToHarbour(ctx, created.ID, harbourIDs[b.Harbour]); err != nil {
				return fmt.Errorf("seed boat %q harbour %q: %w", b.Name, b.Harbour, err)
			}
		}
	}

	log.Info().
		Int("owners", len(f.Owners)).
		Int("harbours", len(f.Harbours)).
		Int("boats", len(f.Boats)).
		Msg("seeded marina data")
	return nil
}

func storeIsEmpty(ctx context.Context, marina ports.MarinaService) (bool, error) {
	owners, err := marina.ListOwners(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: list owners: %w", err)
	}
	boats, err := marina.ListBoats(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: list boats: %w", err)
	}
	harbours, err := marina.ListHarbours(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: list harbours: %w", err)
	}
	return len(owners) == 0 && len(boats) == 0 && len(harbours) == 0, nil
}
