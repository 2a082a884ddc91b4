package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/errors"
)

const mongoCollection = "blueprints"

// MongoStore keeps blueprints in a MongoDB collection, one document per
// name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	Name      string    `bson:"_id"`
	Data      []byte    `bson:"data,omitempty"`
	Hash      string    `bson:"hash"`
	Entities  int       `bson:"entities"`
	Tiles     int       `bson:"tiles"`
	Size      int       `bson:"size"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d mongoDoc) meta() Meta {
	return Meta{
		Name:      d.Name,
		Hash:      d.Hash,
		Entities:  d.Entities,
		Tiles:     d.Tiles,
		Size:      d.Size,
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// OpenMongo connects to the server at uri and uses the blueprints
// collection of database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
	}, nil
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, name string, raw blueprint.Raw) (Meta, error) {
	data, meta, err := encode(name, raw)
	if err != nil {
		return Meta{}, err
	}
	doc := mongoDoc{
		Name:      name,
		Data:      data,
		Hash:      meta.Hash,
		Entities:  meta.Entities,
		Tiles:     meta.Tiles,
		Size:      meta.Size,
		UpdatedAt: meta.UpdatedAt,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return Meta{}, errors.Wrap(errors.ErrCodeInternal, err, "save blueprint %s", name)
	}
	return meta, nil
}

// Load implements Store.
func (s *MongoStore) Load(ctx context.Context, name string) (blueprint.Raw, Meta, error) {
	if err := errors.ValidateBlueprintName(name); err != nil {
		return blueprint.Raw{}, Meta{}, err
	}
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return blueprint.Raw{}, Meta{}, notFound(name)
	}
	if err != nil {
		return blueprint.Raw{}, Meta{}, errors.Wrap(errors.ErrCodeInternal, err, "load blueprint %s", name)
	}
	raw, err := decode(name, doc.Data)
	if err != nil {
		return blueprint.Raw{}, Meta{}, err
	}
	return raw, doc.meta(), nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context) ([]Meta, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list blueprints")
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list blueprints")
	}
	out := make([]Meta, len(docs))
	for i, d := range docs {
		out[i] = d.meta()
	}
	return out, nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateBlueprintName(name); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete blueprint %s", name)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

// Close disconnects from the server.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
