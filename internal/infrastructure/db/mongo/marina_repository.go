package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

const (
	collectionOwners   = "owners"
	collectionBoats    = "boats"
	collectionHarbours = "harbours"
)

var (
	_ ports.MarinaRepository = (*MarinaRepository)(nil)
	_ ports.MarinaTx         = collections{}
)

// MarinaRepository stores each aggregate as one document carrying both its
// fields and its side of every relationship. Mutations run in multi-document
// transactions, so a replica set is required.
type MarinaRepository struct {
	client *mongo.Client
	collections
}

func NewMarinaRepository(client *mongo.Client, db *mongo.Database) *MarinaRepository {
	return &MarinaRepository{
		client: client,
		collections: collections{
			owners:   db.Collection(collectionOwners),
			boats:    db.Collection(collectionBoats),
			harbours: db.Collection(collectionHarbours),
		},
	}
}

// WithinTx runs fn in a snapshot transaction. Two transactions that both
// write the same harbour document conflict, and the driver retries the
// loser from the start.
func (r *MarinaRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.MarinaTx) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, r.collections)
	}, opts)
	return err
}

// EnsureIndexes creates the indexes behind the relationship queries.
func (r *MarinaRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.owners.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "boat_ids", Value: 1}}}); err != nil {
		return fmt.Errorf("owners index: %w", err)
	}
	if _, err := r.boats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_ids", Value: 1}}},
		{Keys: bson.D{{Key: "harbour_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("boats index: %w", err)
	}
	return nil
}

// Ping verifies the primary is reachable.
func (r *MarinaRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

type collections struct {
	owners   *mongo.Collection
	boats    *mongo.Collection
	harbours *mongo.Collection
}

type ownerDoc struct {
	ID      string   `bson:"_id"`
	Name    string   `bson:"name"`
	Address string   `bson:"address"`
	Phone   string   `bson:"phone"`
	BoatIDs []string `bson:"boat_ids"`
}

type boatDoc struct {
	ID        string   `bson:"_id"`
	Name      string   `bson:"name"`
	Type      string   `bson:"type"`
	Captain   string   `bson:"captain"`
	ImageURL  string   `bson:"image_url"`
	HarbourID string   `bson:"harbour_id,omitempty"`
	OwnerIDs  []string `bson:"owner_ids"`
}

type harbourDoc struct {
	ID       string   `bson:"_id"`
	Name     string   `bson:"name"`
	Address  string   `bson:"address"`
	Capacity int      `bson:"capacity"`
	BoatIDs  []string `bson:"boat_ids"`
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func (d ownerDoc) toDomain() *domain.Owner {
	return &domain.Owner{ID: d.ID, Name: d.Name, Address: d.Address, Phone: d.Phone, BoatIDs: nonNil(d.BoatIDs)}
}

func (d boatDoc) toDomain() *domain.Boat {
	return &domain.Boat{
		ID:        d.ID,
		Name:      d.Name,
		Type:      d.Type,
		Captain:   d.Captain,
		ImageURL:  d.ImageURL,
		HarbourID: d.HarbourID,
		OwnerIDs:  nonNil(d.OwnerIDs),
	}
}

func (d harbourDoc) toDomain() *domain.Harbour {
	return &domain.Harbour{ID: d.ID, Name: d.Name, Address: d.Address, Capacity: d.Capacity, BoatIDs: nonNil(d.BoatIDs)}
}

// --- Reads ---

func (c collections) GetOwner(ctx context.Context, id string) (*domain.Owner, error) {
	var d ownerDoc
	if err := findOne(ctx, c.owners, id, &d, domain.ErrOwnerNotFound); err != nil {
		return nil, err
	}
	return d.toDomain(), nil
}

func (c collections) GetBoat(ctx context.Context, id string) (*domain.Boat, error) {
	var d boatDoc
	if err := findOne(ctx, c.boats, id, &d, domain.ErrBoatNotFound); err != nil {
		return nil, err
	}
	return d.toDomain(), nil
}

func (c collections) GetHarbour(ctx context.Context, id string) (*domain.Harbour, error) {
	var d harbourDoc
	if err := findOne(ctx, c.harbours, id, &d, domain.ErrHarbourNotFound); err != nil {
		return nil, err
	}
	return d.toDomain(), nil
}

func (c collections) ListOwners(ctx context.Context) ([]*domain.Owner, error) {
	return findOwners(ctx, c.owners, bson.M{})
}

func (c collections) ListBoats(ctx context.Context) ([]*domain.Boat, error) {
	return findBoats(ctx, c.boats, bson.M{})
}

func (c collections) ListHarbours(ctx context.Context) ([]*domain.Harbour, error) {
	var docs []harbourDoc
	if err := findAll(ctx, c.harbours, bson.M{}, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.Harbour, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (c collections) OwnersOfBoat(ctx context.Context, boatID string) ([]*domain.Owner, error) {
	return findOwners(ctx, c.owners, bson.M{"boat_ids": boatID})
}

func (c collections) BoatsOfOwner(ctx context.Context, ownerID string) ([]*domain.Boat, error) {
	return findBoats(ctx, c.boats, bson.M{"owner_ids": ownerID})
}

func (c collections) BoatsInHarbour(ctx context.Context, harbourID string) ([]*domain.Boat, error) {
	return findBoats(ctx, c.boats, bson.M{"harbour_id": harbourID})
}

func findOne(ctx context.Context, coll *mongo.Collection, id string, out any, notFound error) error {
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("find %s %s: %w", coll.Name(), id, err)
	}
	return nil
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, out any) error {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return nil
}

func findOwners(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]*domain.Owner, error) {
	var docs []ownerDoc
	if err := findAll(ctx, coll, filter, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.Owner, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func findBoats(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]*domain.Boat, error) {
	var docs []boatDoc
	if err := findAll(ctx, coll, filter, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.Boat, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// --- Writes ---

func (c collections) SaveOwner(ctx context.Context, o *domain.Owner) error {
	return replace(ctx, c.owners, o.ID, ownerDoc{
		ID: o.ID, Name: o.Name, Address: o.Address, Phone: o.Phone, BoatIDs: nonNil(o.BoatIDs),
	})
}

func (c collections) SaveBoat(ctx context.Context, b *domain.Boat) error {
	return replace(ctx, c.boats, b.ID, boatDoc{
		ID:        b.ID,
		Name:      b.Name,
		Type:      b.Type,
		Captain:   b.Captain,
		ImageURL:  b.ImageURL,
		HarbourID: b.HarbourID,
		OwnerIDs:  nonNil(b.OwnerIDs),
	})
}

func (c collections) SaveHarbour(ctx context.Context, h *domain.Harbour) error {
	return replace(ctx, c.harbours, h.ID, harbourDoc{
		ID: h.ID, Name: h.Name, Address: h.Address, Capacity: h.Capacity, BoatIDs: nonNil(h.BoatIDs),
	})
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save %s %s: %w", coll.Name(), id, err)
	}
	return nil
}

func (c collections) DeleteOwner(ctx context.Context, id string) error {
	return deleteOne(ctx, c.owners, id, domain.ErrOwnerNotFound)
}

func (c collections) DeleteBoat(ctx context.Context, id string) error {
	return deleteOne(ctx, c.boats, id, domain.ErrBoatNotFound)
}

func (c collections) DeleteHarbour(ctx context.Context, id string) error {
	return deleteOne(ctx, c.harbours, id, domain.ErrHarbourNotFound)
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id string, notFound error) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}
