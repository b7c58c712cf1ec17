package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "flowlens"
	DefaultMongoCollection = "flows"
)

// MongoStore keeps one document per flow. The flow itself is stored as a
// JSON string so that number precision and key order survive.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	Summary `bson:",inline"`
	Flow    string `bson:"flow"`
	Seq     int64  `bson:"seq"`
}

// OpenMongo connects to uri and uses database/collection (defaults apply
// when empty).
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storageErr("connect mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr(fmt.Sprintf("ping mongo %s", uri), err)
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (s *MongoStore) Save(ctx context.Context, doc *flow.Document, name string) (string, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return "", err
	}
	id := newID()
	t := now()
	_, err = s.coll.InsertOne(ctx, mongoDoc{
		Summary: Summary{ID: id, Name: DisplayName(doc, name, id), CreatedAt: t, UpdatedAt: t},
		Flow:    string(data),
		Seq:     t.UnixNano(),
	})
	if err != nil {
		return "", storageErr("insert flow", err)
	}
	return id, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	var d mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find flow", err)
	}
	doc, err := decodeFlow([]byte(d.Flow))
	if err != nil {
		return nil, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &Record{Summary: d.Summary, Flow: doc}, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, doc *flow.Document) (bool, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return false, err
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"flow": string(data), "updated_at": now()}})
	if err != nil {
		return false, storageErr("update flow", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, storageErr("delete flow", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "seq", Value: 1}}).
		SetProjection(bson.M{"flow": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr("list flows", err)
	}
	defer cur.Close(ctx)

	out := []Summary{}
	for cur.Next(ctx) {
		var d mongoDoc
		if err := cur.Decode(&d); err != nil {
			return nil, storageErr("decode flow", err)
		}
		d.CreatedAt = d.CreatedAt.UTC()
		d.UpdatedAt = d.UpdatedAt.UTC()
		out = append(out, d.Summary)
	}
	if err := cur.Err(); err != nil {
		return nil, storageErr("list flows", err)
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
