package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
)

const (
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "zplkit"
	// Collection holds one record per document, keyed by name.
	Collection = "labels"

	connectTimeout = 10 * time.Second
)

// record is the stored shape of a document.
type record struct {
	Name         string          `bson:"_id"`
	Profile      label.Profile   `bson:"profile"`
	Elements     []label.Element `bson:"elements"`
	ElementCount int             `bson:"element_count"`
	UpdatedAt    time.Time       `bson:"updated_at"`
}

// MongoStore keeps documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
	owned  bool
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	s := NewMongoStoreFromClient(client, database)
	s.owned = true
	return s, nil
}

// NewMongoStoreFromClient uses an existing client. Close does not
// disconnect it.
func NewMongoStoreFromClient(client *mongo.Client, database string) *MongoStore {
	if database == "" {
		database = DefaultDatabase
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(Collection),
		now:    time.Now,
	}
}

func (s *MongoStore) Save(ctx context.Context, doc *label.Document) error {
	if err := errors.ValidateName(doc.Name); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	rec := record{
		Name:         doc.Name,
		Profile:      doc.Profile,
		Elements:     doc.List(),
		ElementCount: doc.Len(),
		UpdatedAt:    s.now().UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.Name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, name string) (*label.Document, error) {
	if err := errors.ValidateName(name); err != nil {
		return nil, err
	}
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return label.Restore(rec.Name, rec.Profile, rec.Elements)
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"elements": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var out []Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
