package domain

import (
	"fmt"
	"strings"
)

var (
	ErrOwnerNotFound   = fmt.Errorf("owner %w", ErrNotFound)
	ErrBoatNotFound    = fmt.Errorf("boat %w", ErrNotFound)
	ErrHarbourNotFound = fmt.Errorf("harbour %w", ErrNotFound)
)

// Owner is a person who can hold zero or more boats.
type Owner struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Phone   string   `json:"phone"`
	BoatIDs []string `json:"boat_ids"`
}

// Validate checks that every required field is present.
func (o *Owner) Validate() error {
	return requireFields(
		field{"name", o.Name},
		field{"address", o.Address},
		field{"phone", o.Phone},
	)
}

// Boat is a vessel berthed in at most one harbour. An empty HarbourID means
// the boat is not berthed anywhere.
type Boat struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Captain   string   `json:"captain"`
	ImageURL  string   `json:"image_url"`
	HarbourID string   `json:"harbour_id,omitempty"`
	OwnerIDs  []string `json:"owner_ids"`
}

func (b *Boat) Validate() error {
	return requireFields(
		field{"name", b.Name},
		field{"type", b.Type},
		field{"captain", b.Captain},
	)
}

// Harbour is a berthing location holding at most Capacity boats.
type Harbour struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Capacity int      `json:"capacity"`
	BoatIDs  []string `json:"boat_ids"`
}

// Validate checks required fields and that the current berths fit the capacity.
func (h *Harbour) Validate() error {
	if err := requireFields(
		field{"name", h.Name},
		field{"address", h.Address},
	); err != nil {
		return err
	}
	if h.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be greater than 0", ErrValidation)
	}
	if len(h.BoatIDs) > h.Capacity {
		return fmt.Errorf("%w: capacity %d is below the %d boats already berthed",
			ErrValidation, h.Capacity, len(h.BoatIDs))
	}
	return nil
}

// Free returns the number of berths still available.
func (h *Harbour) Free() int {
	return h.Capacity - len(h.BoatIDs)
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, f.name)
		}
	}
	return nil
}
