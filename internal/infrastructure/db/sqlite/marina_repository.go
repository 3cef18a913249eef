package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

var (
	_ ports.MarinaRepository = (*MarinaRepository)(nil)
	_ ports.MarinaTx         = queries{}
)

// MarinaRepository keeps owners, boats and harbours in SQLite. Ownership
// lives in the boat_owners join table and berthing in boats.harbour_id, so
// both directions of a relationship are read from the same rows.
type MarinaRepository struct {
	db *sqlx.DB
	queries
}

func NewMarinaRepository(db *sqlx.DB) *MarinaRepository {
	return &MarinaRepository{db: db, queries: queries{q: db}}
}

// WithinTx runs fn in one IMMEDIATE transaction. fn must only touch the
// store through tx: the pool holds a single connection.
func (r *MarinaRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.MarinaTx) error) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, queries{q: tx})
	})
}

// queries runs against either the pool or an open transaction.
type queries struct {
	q sqlx.ExtContext
}

type dbOwner struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Address string `db:"address"`
	Phone   string `db:"phone"`
}

type dbBoat struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	Captain   string         `db:"captain"`
	ImageURL  string         `db:"image_url"`
	HarbourID sql.NullString `db:"harbour_id"`
}

type dbHarbour struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Address  string `db:"address"`
	Capacity int    `db:"capacity"`
}

type dbBoatOwner struct {
	BoatID  string `db:"boat_id"`
	OwnerID string `db:"owner_id"`
}

type dbBerth struct {
	ID        string `db:"id"`
	HarbourID string `db:"harbour_id"`
}

const (
	ownerColumns   = `o.id, o.name, o.address, o.phone`
	boatColumns    = `b.id, b.name, b.type, b.captain, b.image_url, b.harbour_id`
	harbourColumns = `h.id, h.name, h.address, h.capacity`
)

func toDomainOwner(o dbOwner) *domain.Owner {
	return &domain.Owner{ID: o.ID, Name: o.Name, Address: o.Address, Phone: o.Phone, BoatIDs: []string{}}
}

func toDomainBoat(b dbBoat) *domain.Boat {
	return &domain.Boat{
		ID:        b.ID,
		Name:      b.Name,
		Type:      b.Type,
		Captain:   b.Captain,
		ImageURL:  b.ImageURL,
		HarbourID: b.HarbourID.String,
		OwnerIDs:  []string{},
	}
}

func toDomainHarbour(h dbHarbour) *domain.Harbour {
	return &domain.Harbour{ID: h.ID, Name: h.Name, Address: h.Address, Capacity: h.Capacity, BoatIDs: []string{}}
}

// --- Reads ---

func (s queries) GetOwner(ctx context.Context, id string) (*domain.Owner, error) {
	owners, err := s.selectOwners(ctx, `SELECT `+ownerColumns+` FROM owners o WHERE o.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, domain.ErrOwnerNotFound
	}
	return owners[0], nil
}

func (s queries) GetBoat(ctx context.Context, id string) (*domain.Boat, error) {
	boats, err := s.selectBoats(ctx, `SELECT `+boatColumns+` FROM boats b WHERE b.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(boats) == 0 {
		return nil, domain.ErrBoatNotFound
	}
	return boats[0], nil
}

func (s queries) GetHarbour(ctx context.Context, id string) (*domain.Harbour, error) {
	harbours, err := s.selectHarbours(ctx, `SELECT `+harbourColumns+` FROM harbours h WHERE h.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(harbours) == 0 {
		return nil, domain.ErrHarbourNotFound
	}
	return harbours[0], nil
}

func (s queries) ListOwners(ctx context.Context) ([]*domain.Owner, error) {
	return s.selectOwners(ctx, `SELECT `+ownerColumns+` FROM owners o ORDER BY o.id`)
}

func (s queries) ListBoats(ctx context.Context) ([]*domain.Boat, error) {
	return s.selectBoats(ctx, `SELECT `+boatColumns+` FROM boats b ORDER BY b.id`)
}

func (s queries) ListHarbours(ctx context.Context) ([]*domain.Harbour, error) {
	return s.selectHarbours(ctx, `SELECT `+harbourColumns+` FROM harbours h ORDER BY h.id`)
}

func (s queries) OwnersOfBoat(ctx context.Context, boatID string) ([]*domain.Owner, error) {
	return s.selectOwners(ctx, `SELECT `+ownerColumns+` FROM owners o
		JOIN boat_owners bo ON bo.owner_id = o.id
		WHERE bo.boat_id = ? ORDER BY o.id`, boatID)
}

func (s queries) BoatsOfOwner(ctx context.Context, ownerID string) ([]*domain.Boat, error) {
	return s.selectBoats(ctx, `SELECT `+boatColumns+` FROM boats b
		JOIN boat_owners bo ON bo.boat_id = b.id
		WHERE bo.owner_id = ? ORDER BY b.id`, ownerID)
}

func (s queries) BoatsInHarbour(ctx context.Context, harbourID string) ([]*domain.Boat, error) {
	return s.selectBoats(ctx, `SELECT `+boatColumns+` FROM boats b WHERE b.harbour_id = ? ORDER BY b.id`, harbourID)
}

// selectOwners runs query and fills in each owner's boat ids.
func (s queries) selectOwners(ctx context.Context, query string, args ...any) ([]*domain.Owner, error) {
	var rows []dbOwner
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select owners: %w", err)
	}
	owners := make([]*domain.Owner, len(rows))
	byID := make(map[string]*domain.Owner, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		owners[i] = toDomainOwner(row)
		byID[row.ID] = owners[i]
		ids[i] = row.ID
	}

	links, err := s.links(ctx, "owner_id", ids)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		o := byID[l.OwnerID]
		o.BoatIDs = append(o.BoatIDs, l.BoatID)
	}
	return owners, nil
}

// selectBoats runs query and fills in each boat's owner ids.
func (s queries) selectBoats(ctx context.Context, query string, args ...any) ([]*domain.Boat, error) {
	var rows []dbBoat
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select boats: %w", err)
	}
	boats := make([]*domain.Boat, len(rows))
	byID := make(map[string]*domain.Boat, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		boats[i] = toDomainBoat(row)
		byID[row.ID] = boats[i]
		ids[i] = row.ID
	}

	links, err := s.links(ctx, "boat_id", ids)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		b := byID[l.BoatID]
		b.OwnerIDs = append(b.OwnerIDs, l.OwnerID)
	}
	return boats, nil
}

// selectHarbours runs query and fills in the boats berthed in each harbour.
func (s queries) selectHarbours(ctx context.Context, query string, args ...any) ([]*domain.Harbour, error) {
	var rows []dbHarbour
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select harbours: %w", err)
	}
	harbours := make([]*domain.Harbour, len(rows))
	byID := make(map[string]*domain.Harbour, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		harbours[i] = toDomainHarbour(row)
		byID[row.ID] = harbours[i]
		ids[i] = row.ID
	}
	if len(ids) == 0 {
		return harbours, nil
	}

	berthQuery, berthArgs, err := sqlx.In(`SELECT id, harbour_id FROM boats WHERE harbour_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("build berth query: %w", err)
	}
	var berths []dbBerth
	if err := sqlx.SelectContext(ctx, s.q, &berths, s.q.Rebind(berthQuery), berthArgs...); err != nil {
		return nil, fmt.Errorf("select berths: %w", err)
	}
	for _, b := range berths {
		h := byID[b.HarbourID]
		h.BoatIDs = append(h.BoatIDs, b.ID)
	}
	return harbours, nil
}

// links returns the boat_owners rows whose column matches one of ids.
func (s queries) links(ctx context.Context, column string, ids []string) ([]dbBoatOwner, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT boat_id, owner_id FROM boat_owners WHERE `+column+` IN (?) ORDER BY boat_id, owner_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("build link query: %w", err)
	}
	var links []dbBoatOwner
	if err := sqlx.SelectContext(ctx, s.q, &links, s.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select boat owners: %w", err)
	}
	return links, nil
}

// --- Writes ---

func (s queries) SaveOwner(ctx context.Context, o *domain.Owner) error {
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO owners (id, name, address, phone)
		VALUES (:id, :name, :address, :phone)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, address = excluded.address, phone = excluded.phone`,
		dbOwner{ID: o.ID, Name: o.Name, Address: o.Address, Phone: o.Phone})
	if err != nil {
		return fmt.Errorf("save owner %s: %w", o.ID, err)
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM boat_owners WHERE owner_id = ?`, o.ID); err != nil {
		return fmt.Errorf("clear owner links: %w", err)
	}
	for _, boatID := range o.BoatIDs {
		if err := s.link(ctx, boatID, o.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s queries) SaveBoat(ctx context.Context, b *domain.Boat) error {
	row := dbBoat{
		ID:        b.ID,
		Name:      b.Name,
		Type:      b.Type,
		Captain:   b.Captain,
		ImageURL:  b.ImageURL,
		HarbourID: sql.NullString{String: b.HarbourID, Valid: b.HarbourID != ""},
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO boats (id, name, type, captain, image_url, harbour_id)
		VALUES (:id, :name, :type, :captain, :image_url, :harbour_id)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type, captain = excluded.captain,
			image_url = excluded.image_url, harbour_id = excluded.harbour_id`, row)
	if err != nil {
		return fmt.Errorf("save boat %s: %w", b.ID, err)
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM boat_owners WHERE boat_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear boat links: %w", err)
	}
	for _, ownerID := range b.OwnerIDs {
		if err := s.link(ctx, b.ID, ownerID); err != nil {
			return err
		}
	}
	return nil
}

// SaveHarbour writes the harbour row and makes boats.harbour_id agree with
// h.BoatIDs.
func (s queries) SaveHarbour(ctx context.Context, h *domain.Harbour) error {
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO harbours (id, name, address, capacity)
		VALUES (:id, :name, :address, :capacity)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, address = excluded.address, capacity = excluded.capacity`,
		dbHarbour{ID: h.ID, Name: h.Name, Address: h.Address, Capacity: h.Capacity})
	if err != nil {
		return fmt.Errorf("save harbour %s: %w", h.ID, err)
	}

	if len(h.BoatIDs) == 0 {
		if _, err := s.q.ExecContext(ctx, `UPDATE boats SET harbour_id = NULL WHERE harbour_id = ?`, h.ID); err != nil {
			return fmt.Errorf("release berths: %w", err)
		}
		return nil
	}

	query, args, err := sqlx.In(`UPDATE boats SET harbour_id = NULL WHERE harbour_id = ? AND id NOT IN (?)`, h.ID, h.BoatIDs)
	if err != nil {
		return fmt.Errorf("build release query: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, s.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("release berths: %w", err)
	}

	query, args, err = sqlx.In(`UPDATE boats SET harbour_id = ? WHERE id IN (?)`, h.ID, h.BoatIDs)
	if err != nil {
		return fmt.Errorf("build berth query: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, s.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("berth boats: %w", err)
	}
	return nil
}

func (s queries) link(ctx context.Context, boatID, ownerID string) error {
	_, err := s.q.ExecContext(ctx, `INSERT OR IGNORE INTO boat_owners (boat_id, owner_id) VALUES (?, ?)`, boatID, ownerID)
	if err != nil {
		return fmt.Errorf("link boat %s to owner %s: %w", boatID, ownerID, err)
	}
	return nil
}

func (s queries) DeleteOwner(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "owners", id, domain.ErrOwnerNotFound)
}

func (s queries) DeleteBoat(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "boats", id, domain.ErrBoatNotFound)
}

func (s queries) DeleteHarbour(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "harbours", id, domain.ErrHarbourNotFound)
}

func (s queries) deleteByID(ctx context.Context, table, id string, notFound error) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fetching rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// Ping reports whether the database answers.
func (r *MarinaRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping: %w", err)
	}
	return nil
}
