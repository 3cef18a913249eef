package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// MarinaService runs every mutation of owners, boats and harbours as one
// load-mutate-save transaction against the store. Relationship changes go
// through the helpers in domain/relations.go.
type MarinaService struct {
	repo   ports.MarinaRepository
	newID  func() string
	logger zerolog.Logger
}

func NewMarinaService(repo ports.MarinaRepository, logger zerolog.Logger) *MarinaService {
	return &MarinaService{repo: repo, newID: newID, logger: logger}
}

// newID returns a time-ordered UUIDv7, falling back to a random UUID.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// --- Owners ---

func (s *MarinaService) CreateOwner(ctx context.Context, in ports.OwnerInput) (*domain.Owner, error) {
	o := &domain.Owner{ID: s.newID()}
	applyOwner(o, in)
	if err := o.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		return tx.SaveOwner(ctx, o)
	}); err != nil {
		return nil, fmt.Errorf("create owner: %w", err)
	}

	s.logger.Info().Str("owner_id", o.ID).Str("name", o.Name).Msg("owner created")
	return o, nil
}

func (s *MarinaService) UpdateOwner(ctx context.Context, id string, in ports.OwnerInput) (*domain.Owner, error) {
	var o *domain.Owner
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		var err error
		if o, err = tx.GetOwner(ctx, id); err != nil {
			return err
		}
		applyOwner(o, in)
		if err := o.Validate(); err != nil {
			return err
		}
		return tx.SaveOwner(ctx, o)
	})
	if err != nil {
		return nil, fmt.Errorf("update owner: %w", err)
	}
	return o, nil
}

// DeleteOwner removes the owner from every boat it holds. Boats left without
// owners are kept.
func (s *MarinaService) DeleteOwner(ctx context.Context, id string) error {
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		o, err := tx.GetOwner(ctx, id)
		if err != nil {
			return err
		}
		boats, err := tx.BoatsOfOwner(ctx, id)
		if err != nil {
			return err
		}
		for _, b := range boats {
			domain.UnlinkOwner(b, o)
			if err := tx.SaveBoat(ctx, b); err != nil {
				return err
			}
		}
		return tx.DeleteOwner(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	s.logger.Info().Str("owner_id", id).Msg("owner deleted")
	return nil
}

func (s *MarinaService) GetOwner(ctx context.Context, id string) (*domain.Owner, error) {
	return s.repo.GetOwner(ctx, id)
}

func (s *MarinaService) ListOwners(ctx context.Context) ([]*domain.Owner, error) {
	return s.repo.ListOwners(ctx)
}

func (s *MarinaService) BoatsOfOwner(ctx context.Context, ownerID string) ([]*domain.Boat, error) {
	if _, err := s.repo.GetOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repo.BoatsOfOwner(ctx, ownerID)
}

// --- Boats ---

func (s *MarinaService) CreateBoat(ctx context.Context, in ports.BoatInput) (*domain.Boat, error) {
	b := &domain.Boat{ID: s.newID()}
	applyBoat(b, in)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		return tx.SaveBoat(ctx, b)
	}); err != nil {
		return nil, fmt.Errorf("create boat: %w", err)
	}

	s.logger.Info().Str("boat_id", b.ID).Str("name", b.Name).Msg("boat created")
	return b, nil
}

func (s *MarinaService) UpdateBoat(ctx context.Context, id string, in ports.BoatInput) (*domain.Boat, error) {
	var b *domain.Boat
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		var err error
		if b, err = tx.GetBoat(ctx, id); err != nil {
			return err
		}
		applyBoat(b, in)
		if err := b.Validate(); err != nil {
			return err
		}
		return tx.SaveBoat(ctx, b)
	})
	if err != nil {
		return nil, fmt.Errorf("update boat: %w", err)
	}
	return b, nil
}

// DeleteBoat detaches the boat from its owners and harbour before removing it.
func (s *MarinaService) DeleteBoat(ctx context.Context, id string) error {
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		b, err := tx.GetBoat(ctx, id)
		if err != nil {
			return err
		}
		owners, err := tx.OwnersOfBoat(ctx, id)
		if err != nil {
			return err
		}
		for _, o := range owners {
			domain.UnlinkOwner(b, o)
			if err := tx.SaveOwner(ctx, o); err != nil {
				return err
			}
		}
		if b.HarbourID != "" {
			h, err := tx.GetHarbour(ctx, b.HarbourID)
			if err != nil {
				return err
			}
			domain.ReleaseHarbour(b, h)
			if err := tx.SaveHarbour(ctx, h); err != nil {
				return err
			}
		}
		return tx.DeleteBoat(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete boat: %w", err)
	}
	s.logger.Info().Str("boat_id", id).Msg("boat deleted")
	return nil
}

func (s *MarinaService) GetBoat(ctx context.Context, id string) (*domain.Boat, error) {
	return s.repo.GetBoat(ctx, id)
}

func (s *MarinaService) ListBoats(ctx context.Context) ([]*domain.Boat, error) {
	return s.repo.ListBoats(ctx)
}

func (s *MarinaService) OwnersOfBoat(ctx context.Context, boatID string) ([]*domain.Owner, error) {
	if _, err := s.repo.GetBoat(ctx, boatID); err != nil {
		return nil, err
	}
	return s.repo.OwnersOfBoat(ctx, boatID)
}

// --- Harbours ---

func (s *MarinaService) CreateHarbour(ctx context.Context, in ports.HarbourInput) (*domain.Harbour, error) {
	h := &domain.Harbour{ID: s.newID()}
	applyHarbour(h, in)
	if err := h.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		return tx.SaveHarbour(ctx, h)
	}); err != nil {
		return nil, fmt.Errorf("create harbour: %w", err)
	}

	s.logger.Info().Str("harbour_id", h.ID).Str("name", h.Name).Int("capacity", h.Capacity).Msg("harbour created")
	return h, nil
}

// UpdateHarbour rejects a capacity below the number of boats already berthed.
func (s *MarinaService) UpdateHarbour(ctx context.Context, id string, in ports.HarbourInput) (*domain.Harbour, error) {
	var h *domain.Harbour
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		var err error
		if h, err = tx.GetHarbour(ctx, id); err != nil {
			return err
		}
		applyHarbour(h, in)
		if err := h.Validate(); err != nil {
			return err
		}
		return tx.SaveHarbour(ctx, h)
	})
	if err != nil {
		return nil, fmt.Errorf("update harbour: %w", err)
	}
	return h, nil
}

// DeleteHarbour releases every berthed boat before removing the harbour.
func (s *MarinaService) DeleteHarbour(ctx context.Context, id string) error {
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		h, err := tx.GetHarbour(ctx, id)
		if err != nil {
			return err
		}
		boats, err := tx.BoatsInHarbour(ctx, id)
		if err != nil {
			return err
		}
		for _, b := range boats {
			domain.ReleaseHarbour(b, h)
			if err := tx.SaveBoat(ctx, b); err != nil {
				return err
			}
		}
		return tx.DeleteHarbour(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete harbour: %w", err)
	}
	s.logger.Info().Str("harbour_id", id).Msg("harbour deleted")
	return nil
}

func (s *MarinaService) GetHarbour(ctx context.Context, id string) (*domain.Harbour, error) {
	return s.repo.GetHarbour(ctx, id)
}

func (s *MarinaService) ListHarbours(ctx context.Context) ([]*domain.Harbour, error) {
	return s.repo.ListHarbours(ctx)
}

func (s *MarinaService) BoatsInHarbour(ctx context.Context, harbourID string) ([]*domain.Boat, error) {
	if _, err := s.repo.GetHarbour(ctx, harbourID); err != nil {
		return nil, err
	}
	return s.repo.BoatsInHarbour(ctx, harbourID)
}

// --- Relationships ---

// LinkBoatToOwner records the ownership on both the boat and the owner.
// Linking an existing pair is a no-op.
func (s *MarinaService) LinkBoatToOwner(ctx context.Context, boatID, ownerID string) (*domain.Boat, error) {
	var b *domain.Boat
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		var err error
		if b, err = tx.GetBoat(ctx, boatID); err != nil {
			return err
		}
		o, err := tx.GetOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if !domain.LinkOwner(b, o) {
			return nil
		}
		if err := tx.SaveBoat(ctx, b); err != nil {
			return err
		}
		return tx.SaveOwner(ctx, o)
	})
	if err != nil {
		return nil, fmt.Errorf("link boat %s to owner %s: %w", boatID, ownerID, err)
	}
	s.logger.Info().Str("boat_id", boatID).Str("owner_id", ownerID).Msg("owner linked")
	return b, nil
}

func (s *MarinaService) UnlinkBoatFromOwner(ctx context.Context, boatID, ownerID string) (*domain.Boat, error) {
	var b *domain.Boat
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		var err error
		if b, err = tx.GetBoat(ctx, boatID); err != nil {
			return err
		}
		o, err := tx.GetOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if !domain.UnlinkOwner(b, o) {
			return nil
		}
		if err := tx.SaveBoat(ctx, b); err != nil {
			return err
		}
		return tx.SaveOwner(ctx, o)
	})
	if err != nil {
		return nil, fmt.Errorf("unlink boat %s from owner %s: %w", boatID, ownerID, err)
	}
	s.logger.Info().Str("boat_id", boatID).Str("owner_id", ownerID).Msg("owner unlinked")
	return b, nil
}

// AssignBoatToHarbour moves the boat into the harbour. The capacity check and
// the writes to the previous harbour, the target harbour and the boat run in
// one transaction; a full harbour fails with domain.ErrCapacityExceeded and
// nothing is written.
func (s *MarinaService) AssignBoatToHarbour(ctx context.Context, boatID, harbourID string) (*domain.Harbour, error) {
	var target *domain.Harbour
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		b, err := tx.GetBoat(ctx, boatID)
		if err != nil {
			return err
		}
		if target, err = tx.GetHarbour(ctx, harbourID); err != nil {
			return err
		}

		var current *domain.Harbour
		if b.HarbourID != "" && b.HarbourID != target.ID {
			if current, err = tx.GetHarbour(ctx, b.HarbourID); err != nil {
				return err
			}
		}

		if err := domain.AssignHarbour(b, current, target); err != nil {
			return err
		}

		if current != nil {
			if err := tx.SaveHarbour(ctx, current); err != nil {
				return err
			}
		}
		if err := tx.SaveHarbour(ctx, target); err != nil {
			return err
		}
		return tx.SaveBoat(ctx, b)
	})
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			s.logger.Warn().Str("boat_id", boatID).Str("harbour_id", harbourID).Msg("harbour full, assignment rejected")
		}
		return nil, fmt.Errorf("assign boat %s to harbour %s: %w", boatID, harbourID, err)
	}

	s.logger.Info().Str("boat_id", boatID).Str("harbour_id", harbourID).Msg("boat assigned to harbour")
	return target, nil
}

func (s *MarinaService) RemoveBoatFromHarbour(ctx context.Context, boatID string) (*domain.Boat, error) {
	var b *domain.Boat
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.MarinaTx) error {
		var err error
		if b, err = tx.GetBoat(ctx, boatID); err != nil {
			return err
		}
		if b.HarbourID == "" {
			return nil
		}
		h, err := tx.GetHarbour(ctx, b.HarbourID)
		if err != nil {
			return err
		}
		domain.ReleaseHarbour(b, h)
		if err := tx.SaveHarbour(ctx, h); err != nil {
			return err
		}
		return tx.SaveBoat(ctx, b)
	})
	if err != nil {
		return nil, fmt.Errorf("remove boat %s from harbour: %w", boatID, err)
	}
	return b, nil
}

func applyOwner(o *domain.Owner, in ports.OwnerInput) {
	o.Name = strings.TrimSpace(in.Name)
	o.Address = strings.TrimSpace(in.Address)
	o.Phone = strings.TrimSpace(in.Phone)
}

func applyBoat(b *domain.Boat, in ports.BoatInput) {
	b.Name = strings.TrimSpace(in.Name)
	b.Type = strings.TrimSpace(in.Type)
	b.Captain = strings.TrimSpace(in.Captain)
	b.ImageURL = strings.TrimSpace(in.ImageURL)
}

func applyHarbour(h *domain.Harbour, in ports.HarbourInput) {
	h.Name = strings.TrimSpace(in.Name)
	h.Address = strings.TrimSpace(in.Address)
	h.Capacity = in.Capacity
}
