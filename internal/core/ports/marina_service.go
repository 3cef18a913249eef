package ports

import (
	"context"

	"github.com/marina/marina-system/internal/core/domain"
)

// OwnerInput carries the editable fields of an owner.
type OwnerInput struct {
	Name    string
	Address string
	Phone   string
}

// BoatInput carries the editable fields of a boat.
type BoatInput struct {
	Name     string
	Type     string
	Captain  string
	ImageURL string
}

// HarbourInput carries the editable fields of a harbour.
type HarbourInput struct {
	Name     string
	Address  string
	Capacity int
}

// MarinaService defines the use-case operations over owners, boats and harbours.
type MarinaService interface {
	CreateOwner(ctx context.Context, in OwnerInput) (*domain.Owner, error)
	UpdateOwner(ctx context.Context, id string, in OwnerInput) (*domain.Owner, error)
	DeleteOwner(ctx context.Context, id string) error
	GetOwner(ctx context.Context, id string) (*domain.Owner, error)
	ListOwners(ctx context.Context) ([]*domain.Owner, error)
	BoatsOfOwner(ctx context.Context, ownerID string) ([]*domain.Boat, error)

	CreateBoat(ctx context.Context, in BoatInput) (*domain.Boat, error)
	UpdateBoat(ctx context.Context, id string, in BoatInput) (*domain.Boat, error)
	DeleteBoat(ctx context.Context, id string) error
	GetBoat(ctx context.Context, id string) (*domain.Boat, error)
	ListBoats(ctx context.Context) ([]*domain.Boat, error)
	OwnersOfBoat(ctx context.Context, boatID string) ([]*domain.Owner, error)

	CreateHarbour(ctx context.Context, in HarbourInput) (*domain.Harbour, error)
	UpdateHarbour(ctx context.Context, id string, in HarbourInput) (*domain.Harbour, error)
	DeleteHarbour(ctx context.Context, id string) error
	GetHarbour(ctx context.Context, id string) (*domain.Harbour, error)
	ListHarbours(ctx context.Context) ([]*domain.Harbour, error)
	BoatsInHarbour(ctx context.Context, harbourID string) ([]*domain.Boat, error)

	LinkBoatToOwner(ctx context.Context, boatID, ownerID string) (*domain.Boat, error)
	UnlinkBoatFromOwner(ctx context.Context, boatID, ownerID string) (*domain.Boat, error)
	AssignBoatToHarbour(ctx context.Context, boatID, harbourID string) (*domain.Harbour, error)
	RemoveBoatFromHarbour(ctx context.Context, boatID string) (*domain.Boat, error)
}
