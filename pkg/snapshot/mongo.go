package snapshot

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/observability"
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string // defaults to mongodb://localhost:27017
	Database   string // defaults to "stakegraph"
	Collection string // defaults to "snapshots"
}

// MongoStore keeps one document per snapshot. The graph is stored as its
// canonical JSON bytes next to queryable metadata fields.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
	Nodes     int       `bson:"nodes"`
	Edges     int       `bson:"edges"`
	Payload   []byte    `bson:"payload,omitempty"`
}

func (d mongoDoc) info() Info {
	return Info{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt.UTC(), Nodes: d.Nodes, Edges: d.Edges}
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "stakegraph"
	}
	if cfg.Collection == "" {
		cfg.Collection = "snapshots"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create snapshot index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (m *MongoStore) Save(ctx context.Context, s Snapshot) error {
	if err := checkID(s.ID); err != nil {
		return err
	}
	data, err := encode(s)
	if err == nil {
		doc := mongoDoc{
			ID:        s.ID,
			Name:      s.Name,
			CreatedAt: s.CreatedAt,
			Nodes:     len(s.Graph.Nodes),
			Edges:     len(s.Graph.Edges),
			Payload:   data,
		}
		opts := options.Replace().SetUpsert(true)
		if _, replaceErr := m.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, doc, opts); replaceErr != nil {
			err = errors.Wrap(errors.ErrCodeStorage, replaceErr, "save snapshot %s", s.ID)
		}
	}
	observability.Snapshot().OnSave(ctx, BackendMongo, len(data), err)
	return err
}

func (m *MongoStore) Get(ctx context.Context, id string) (Snapshot, error) {
	s, err := m.get(ctx, id)
	observability.Snapshot().OnLoad(ctx, BackendMongo, err)
	return s, err
}

func (m *MongoStore) get(ctx context.Context, id string) (Snapshot, error) {
	if err := checkID(id); err != nil {
		return Snapshot{}, err
	}
	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return Snapshot{}, notFound(id)
	}
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeStorage, err, "get snapshot %s", id)
	}
	return decode(doc.Payload)
}

func (m *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"payload": 0})
	cur, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots")
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read snapshot list")
	}
	out := make([]Info, len(docs))
	for i, d := range docs {
		out[i] = d.info()
	}
	return out, nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete snapshot %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (m *MongoStore) Backend() string { return BackendMongo }

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
