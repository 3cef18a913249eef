package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory transactional repository
// ---------------------------------------------------------------------------

type memState struct {
	owners   map[string]*domain.Owner
	boats    map[string]*domain.Boat
	harbours map[string]*domain.Harbour
}

func (s *memState) clone() *memState {
	c := &memState{
		owners:   make(map[string]*domain.Owner, len(s.owners)),
		boats:    make(map[string]*domain.Boat, len(s.boats)),
		harbours: make(map[string]*domain.Harbour, len(s.harbours)),
	}
	for k, v := range s.owners {
		c.owners[k] = cloneOwner(v)
	}
	for k, v := range s.boats {
		c.boats[k] = cloneBoat(v)
	}
	for k, v := range s.harbours {
		c.harbours[k] = cloneHarbour(v)
	}
	return c
}

func cloneOwner(o *domain.Owner) *domain.Owner {
	c := *o
	c.BoatIDs = slices.Clone(o.BoatIDs)
	return &c
}

func cloneBoat(b *domain.Boat) *domain.Boat {
	c := *b
	c.OwnerIDs = slices.Clone(b.OwnerIDs)
	return &c
}

func cloneHarbour(h *domain.Harbour) *domain.Harbour {
	c := *h
	c.BoatIDs = slices.Clone(h.BoatIDs)
	return &c
}

func (s *memState) GetOwner(_ context.Context, id string) (*domain.Owner, error) {
	o, ok := s.owners[id]
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}
	return cloneOwner(o), nil
}

func (s *memState) GetBoat(_ context.Context, id string) (*domain.Boat, error) {
	b, ok := s.boats[id]
	if !ok {
		return nil, domain.ErrBoatNotFound
	}
	return cloneBoat(b), nil
}

func (s *memState) GetHarbour(_ context.Context, id string) (*domain.Harbour, error) {
	h, ok := s.harbours[id]
	if !ok {
		return nil, domain.ErrHarbourNotFound
	}
	return cloneHarbour(h), nil
}

func (s *memState) ListOwners(ctx context.Context) ([]*domain.Owner, error) {
	var out []*domain.Owner
	for _, id := range slices.Sorted(maps.Keys(s.owners)) {
		o, _ := s.GetOwner(ctx, id)
		out = append(out, o)
	}
	return out, nil
}

func (s *memState) ListBoats(ctx context.Context) ([]*domain.Boat, error) {
	var out []*domain.Boat
	for _, id := range slices.Sorted(maps.Keys(s.boats)) {
		b, _ := s.GetBoat(ctx, id)
		out = append(out, b)
	}
	return out, nil
}

func (s *memState) ListHarbours(ctx context.Context) ([]*domain.Harbour, error) {
	var out []*domain.Harbour
	for _, id := range slices.Sorted(maps.Keys(s.harbours)) {
		h, _ := s.GetHarbour(ctx, id)
		out = append(out, h)
	}
	return out, nil
}

func (s *memState) OwnersOfBoat(ctx context.Context, boatID string) ([]*domain.Owner, error) {
	owners, _ := s.ListOwners(ctx)
	return slices.DeleteFunc(owners, func(o *domain.Owner) bool {
		return !slices.Contains(o.BoatIDs, boatID)
	}), nil
}

func (s *memState) BoatsOfOwner(ctx context.Context, ownerID string) ([]*domain.Boat, error) {
	boats, _ := s.ListBoats(ctx)
	return slices.DeleteFunc(boats, func(b *domain.Boat) bool {
		return !slices.Contains(b.OwnerIDs, ownerID)
	}), nil
}

func (s *memState) BoatsInHarbour(ctx context.Context, harbourID string) ([]*domain.Boat, error) {
	boats, _ := s.ListBoats(ctx)
	return slices.DeleteFunc(boats, func(b *domain.Boat) bool {
		return b.HarbourID != harbourID
	}), nil
}

func (s *memState) SaveOwner(_ context.Context, o *domain.Owner) error {
	s.owners[o.ID] = cloneOwner(o)
	return nil
}

func (s *memState) SaveBoat(_ context.Context, b *domain.Boat) error {
	s.boats[b.ID] = cloneBoat(b)
	return nil
}

func (s *memState) SaveHarbour(_ context.Context, h *domain.Harbour) error {
	s.harbours[h.ID] = cloneHarbour(h)
	return nil
}

func (s *memState) DeleteOwner(_ context.Context, id string) error {
	delete(s.owners, id)
	return nil
}

func (s *memState) DeleteBoat(_ context.Context, id string) error {
	delete(s.boats, id)
	return nil
}

func (s *memState) DeleteHarbour(_ context.Context, id string) error {
	delete(s.harbours, id)
	return nil
}

// memRepo serializes transactions with a mutex and commits a copy of the
// state only when fn succeeds.
type memRepo struct {
	mu sync.Mutex
	*memState
	failSave error
}

func newMemRepo() *memRepo {
	return &memRepo{memState: &memState{
		owners:   make(map[string]*domain.Owner),
		boats:    make(map[string]*domain.Boat),
		harbours: make(map[string]*domain.Harbour),
	}}
}

func (r *memRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.MarinaTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.memState.clone()
	var tx ports.MarinaTx = work
	if r.failSave != nil {
		tx = failingTx{memState: work, err: r.failSave}
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.memState = work
	return nil
}

// failingTx makes SaveBoat fail, used to check rollback.
type failingTx struct {
	*memState
	err error
}

func (f failingTx) SaveBoat(context.Context, *domain.Boat) error { return f.err }

func newTestMarinaService() (*MarinaService, *memRepo) {
	repo := newMemRepo()
	svc := NewMarinaService(repo, zerolog.Nop())
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	return svc, repo
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestMarinaService_CreateHarbour_Validation(t *testing.T) {
	svc, repo := newTestMarinaService()
	ctx := context.Background()

	_, err := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "Melsted Havn", Address: "Melsted byvej", Capacity: 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(repo.harbours) != 0 {
		t.Fatal("invalid harbour was stored")
	}

	h, err := svc.CreateHarbour(ctx, ports.HarbourInput{Name: " Melsted Havn ", Address: "Melsted byvej", Capacity: 8})
	if err != nil {
		t.Fatalf("CreateHarbour: %v", err)
	}
	if h.Name != "Melsted Havn" || h.Capacity != 8 || h.ID == "" {
		t.Fatalf("unexpected harbour: %+v", h)
	}
}

func TestMarinaService_LinkBoatToOwner(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	o, _ := svc.CreateOwner(ctx, ports.OwnerInput{Name: "Skipper Bænt", Address: "Strandvejen 1", Phone: "12345678"})
	b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "Boatmaster", Type: "Speedboat", Captain: "Bænt"})

	if _, err := svc.LinkBoatToOwner(ctx, b.ID, o.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, err := svc.LinkBoatToOwner(ctx, b.ID, o.ID); err != nil {
		t.Fatalf("duplicate link: %v", err)
	}

	owners, _ := svc.OwnersOfBoat(ctx, b.ID)
	if len(owners) != 1 || owners[0].ID != o.ID {
		t.Fatalf("owners of boat: %+v", owners)
	}
	boats, _ := svc.BoatsOfOwner(ctx, o.ID)
	if len(boats) != 1 || boats[0].ID != b.ID {
		t.Fatalf("boats of owner: %+v", boats)
	}
	stored, _ := svc.GetOwner(ctx, o.ID)
	if !slices.Equal(stored.BoatIDs, []string{b.ID}) {
		t.Fatalf("owner boat ids: %v", stored.BoatIDs)
	}

	if _, err := svc.LinkBoatToOwner(ctx, b.ID, "missing"); !errors.Is(err, domain.ErrOwnerNotFound) {
		t.Fatalf("expected ErrOwnerNotFound, got %v", err)
	}
}

func TestMarinaService_UnlinkLeavesBoat(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	o, _ := svc.CreateOwner(ctx, ports.OwnerInput{Name: "Niels", Address: "Nexø", Phone: "1"})
	b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "Das Boot", Type: "U-Boat", Captain: "Niels"})
	_, _ = svc.LinkBoatToOwner(ctx, b.ID, o.ID)

	got, err := svc.UnlinkBoatFromOwner(ctx, b.ID, o.ID)
	if err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if len(got.OwnerIDs) != 0 {
		t.Fatalf("boat still has owners: %v", got.OwnerIDs)
	}
	if _, err := svc.GetBoat(ctx, b.ID); err != nil {
		t.Fatalf("owner-less boat must remain: %v", err)
	}
	boats, _ := svc.BoatsOfOwner(ctx, o.ID)
	if len(boats) != 0 {
		t.Fatalf("owner still lists boats: %v", boats)
	}
}

func TestMarinaService_AssignRespectsCapacity(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	h, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "Tiny", Address: "Dock 1", Capacity: 1})
	b1, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "One", Type: "Sail", Captain: "A"})
	b2, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "Two", Type: "Sail", Captain: "B"})

	if _, err := svc.AssignBoatToHarbour(ctx, b1.ID, h.ID); err != nil {
		t.Fatalf("first assignment: %v", err)
	}
	_, err := svc.AssignBoatToHarbour(ctx, b2.ID, h.ID)
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	stored, _ := svc.GetBoat(ctx, b2.ID)
	if stored.HarbourID != "" {
		t.Fatalf("rejected boat was berthed in %q", stored.HarbourID)
	}
	boats, _ := svc.BoatsInHarbour(ctx, h.ID)
	if len(boats) != 1 {
		t.Fatalf("expected 1 boat in harbour, got %d", len(boats))
	}
}

func TestMarinaService_MoveBoatBetweenHarbours(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	nexo, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "Nexø Havn", Address: "Havnen", Capacity: 14})
	aak, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "Aakirkeby Havn", Address: "Havnen", Capacity: 32})
	b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "Hanger", Type: "Yacht", Captain: "Bente"})

	_, _ = svc.AssignBoatToHarbour(ctx, b.ID, nexo.ID)
	if _, err := svc.AssignBoatToHarbour(ctx, b.ID, aak.ID); err != nil {
		t.Fatalf("move: %v", err)
	}

	if boats, _ := svc.BoatsInHarbour(ctx, nexo.ID); len(boats) != 0 {
		t.Fatalf("boat still in previous harbour: %v", boats)
	}
	n, _ := svc.GetHarbour(ctx, nexo.ID)
	if len(n.BoatIDs) != 0 {
		t.Fatalf("previous harbour still lists boat: %v", n.BoatIDs)
	}
	a, _ := svc.GetHarbour(ctx, aak.ID)
	if !slices.Equal(a.BoatIDs, []string{b.ID}) {
		t.Fatalf("new harbour boats: %v", a.BoatIDs)
	}
}

func TestMarinaService_ConcurrentAssignNeverOverfills(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	h, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "Melsted Havn", Address: "Melsted", Capacity: 3})
	var ids []string
	for i := range 10 {
		b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: fmt.Sprintf("b%d", i), Type: "t", Captain: "c"})
		ids = append(ids, b.ID)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AssignBoatToHarbour(ctx, id, h.ID)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrCapacityExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 3 {
		t.Fatalf("expected 3 accepted assignments, got %d", accepted)
	}
	stored, _ := svc.GetHarbour(ctx, h.ID)
	if len(stored.BoatIDs) != 3 {
		t.Fatalf("harbour holds %d boats", len(stored.BoatIDs))
	}
}

func TestMarinaService_UpdateHarbourBelowOccupancy(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	h, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "H", Address: "A", Capacity: 2})
	b1, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "1", Type: "t", Captain: "c"})
	b2, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "2", Type: "t", Captain: "c"})
	_, _ = svc.AssignBoatToHarbour(ctx, b1.ID, h.ID)
	_, _ = svc.AssignBoatToHarbour(ctx, b2.ID, h.ID)

	_, err := svc.UpdateHarbour(ctx, h.ID, ports.HarbourInput{Name: "H", Address: "A", Capacity: 1})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	stored, _ := svc.GetHarbour(ctx, h.ID)
	if stored.Capacity != 2 {
		t.Fatalf("capacity changed to %d", stored.Capacity)
	}
}

func TestMarinaService_DeleteHarbourReleasesBoats(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	h, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "H", Address: "A", Capacity: 2})
	b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "B", Type: "t", Captain: "c"})
	_, _ = svc.AssignBoatToHarbour(ctx, b.ID, h.ID)

	if err := svc.DeleteHarbour(ctx, h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	stored, err := svc.GetBoat(ctx, b.ID)
	if err != nil {
		t.Fatalf("boat removed with harbour: %v", err)
	}
	if stored.HarbourID != "" {
		t.Fatalf("boat still points at deleted harbour %q", stored.HarbourID)
	}
	if _, err := svc.GetHarbour(ctx, h.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarinaService_DeleteBoatDetachesEverything(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	o, _ := svc.CreateOwner(ctx, ports.OwnerInput{Name: "Bente", Address: "A", Phone: "1"})
	h, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "H", Address: "A", Capacity: 2})
	b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "B", Type: "t", Captain: "c"})
	_, _ = svc.LinkBoatToOwner(ctx, b.ID, o.ID)
	_, _ = svc.AssignBoatToHarbour(ctx, b.ID, h.ID)

	if err := svc.DeleteBoat(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	owner, _ := svc.GetOwner(ctx, o.ID)
	if len(owner.BoatIDs) != 0 {
		t.Fatalf("owner still lists deleted boat: %v", owner.BoatIDs)
	}
	harbour, _ := svc.GetHarbour(ctx, h.ID)
	if len(harbour.BoatIDs) != 0 {
		t.Fatalf("harbour still lists deleted boat: %v", harbour.BoatIDs)
	}
}

func TestMarinaService_DeleteOwnerKeepsBoats(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	o, _ := svc.CreateOwner(ctx, ports.OwnerInput{Name: "Bente", Address: "A", Phone: "1"})
	b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "B", Type: "t", Captain: "c"})
	_, _ = svc.LinkBoatToOwner(ctx, b.ID, o.ID)

	if err := svc.DeleteOwner(ctx, o.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	stored, err := svc.GetBoat(ctx, b.ID)
	if err != nil {
		t.Fatalf("boat removed with owner: %v", err)
	}
	if len(stored.OwnerIDs) != 0 {
		t.Fatalf("boat still lists deleted owner: %v", stored.OwnerIDs)
	}
}

func TestMarinaService_FailedSaveRollsBack(t *testing.T) {
	svc, repo := newTestMarinaService()
	ctx := context.Background()

	h, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "H", Address: "A", Capacity: 2})
	b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "B", Type: "t", Captain: "c"})

	repo.failSave = errors.New("disk full")
	if _, err := svc.AssignBoatToHarbour(ctx, b.ID, h.ID); err == nil {
		t.Fatal("expected error")
	}
	repo.failSave = nil

	stored, _ := svc.GetHarbour(ctx, h.ID)
	if len(stored.BoatIDs) != 0 {
		t.Fatalf("harbour write survived rollback: %v", stored.BoatIDs)
	}
}

func TestMarinaService_RelationshipReadsCheckParent(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	if _, err := svc.BoatsOfOwner(ctx, "nope"); !errors.Is(err, domain.ErrOwnerNotFound) {
		t.Errorf("BoatsOfOwner: got %v", err)
	}
	if _, err := svc.OwnersOfBoat(ctx, "nope"); !errors.Is(err, domain.ErrBoatNotFound) {
		t.Errorf("OwnersOfBoat: got %v", err)
	}
	if _, err := svc.BoatsInHarbour(ctx, "nope"); !errors.Is(err, domain.ErrHarbourNotFound) {
		t.Errorf("BoatsInHarbour: got %v", err)
	}
}

func TestMarinaService_RemoveBoatFromHarbour(t *testing.T) {
	svc, _ := newTestMarinaService()
	ctx := context.Background()

	h, _ := svc.CreateHarbour(ctx, ports.HarbourInput{Name: "H", Address: "A", Capacity: 1})
	b, _ := svc.CreateBoat(ctx, ports.BoatInput{Name: "B", Type: "t", Captain: "c"})
	_, _ = svc.AssignBoatToHarbour(ctx, b.ID, h.ID)

	got, err := svc.RemoveBoatFromHarbour(ctx, b.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got.HarbourID != "" {
		t.Fatalf("boat still berthed in %q", got.HarbourID)
	}
	stored, _ := svc.GetHarbour(ctx, h.ID)
	if stored.Free() != 1 {
		t.Fatalf("berth not freed: %v", stored.BoatIDs)
	}
}
