package ports

import (
	"context"

	"github.com/marina/marina-system/internal/core/domain"
)

// MarinaReader holds the query side of the store. Every entity is returned
// with both sides of its relationships filled in.
type MarinaReader interface {
	GetOwner(ctx context.Context, id string) (*domain.Owner, error)
	GetBoat(ctx context.Context, id string) (*domain.Boat, error)
	GetHarbour(ctx context.Context, id string) (*domain.Harbour, error)

	ListOwners(ctx context.Context) ([]*domain.Owner, error)
	ListBoats(ctx context.Context) ([]*domain.Boat, error)
	ListHarbours(ctx context.Context) ([]*domain.Harbour, error)

	OwnersOfBoat(ctx context.Context, boatID string) ([]*domain.Owner, error)
	BoatsOfOwner(ctx context.Context, ownerID string) ([]*domain.Boat, error)
	BoatsInHarbour(ctx context.Context, harbourID string) ([]*domain.Boat, error)
}

// MarinaTx is a unit of work. Save methods insert or overwrite the whole
// aggregate, including its relationship collections.
type MarinaTx interface {
	MarinaReader

	SaveOwner(ctx context.Context, o *domain.Owner) error
	SaveBoat(ctx context.Context, b *domain.Boat) error
	SaveHarbour(ctx context.Context, h *domain.Harbour) error

	DeleteOwner(ctx context.Context, id string) error
	DeleteBoat(ctx context.Context, id string) error
	DeleteHarbour(ctx context.Context, id string) error
}

// MarinaRepository is the transactional store behind the domain model.
type MarinaRepository interface {
	MarinaReader

	// WithinTx runs fn inside one transaction. Two transactions touching the
	// same harbour never interleave their reads and writes; an error from fn
	// rolls everything back. fn must use the ctx and tx it is given.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx MarinaTx) error) error
}
