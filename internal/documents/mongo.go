package documents

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoCollection is the subset of *mongo.Collection used by MongoStore.
type MongoCollection interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// MongoStore reads posts mirrored into a mongo collection. Documents are keyed
// by their numeric post id in _id.
type MongoStore struct {
	collection MongoCollection
	filter     Filter
}

var _ interfaces.DocumentStore = (*MongoStore)(nil)

// NewMongoStore wraps a collection.
func NewMongoStore(collection MongoCollection) *MongoStore {
	return &MongoStore{
		collection: collection,
		filter:     DefaultFilter(),
	}
}

// MongoConnection holds a connected client and the store built on it.
type MongoConnection struct {
	Client *mongo.Client
	Store  *MongoStore
}

// Close disconnects the client.
func (c *MongoConnection) Close(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Disconnect(ctx)
}

// ConnectMongo dials uri, verifies the primary and returns a store over
// database.collection.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoConnection, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("documents: connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("documents: ping mongo: %w", err)
	}
	coll := client.Database(database).Collection(collection)
	return &MongoConnection{Client: client, Store: NewMongoStore(coll)}, nil
}

type mongoPost struct {
	ID      int64  `bson:"_id"`
	Title   string `bson:"title"`
	Type    string `bson:"post_type"`
	Status  string `bson:"status"`
	Content string `bson:"content"`
}

func (p mongoPost) document() interfaces.Document {
	return interfaces.Document{
		ID:       p.ID,
		Title:    p.Title,
		PostType: p.Type,
		Status:   p.Status,
		Content:  p.Content,
	}
}

// BuildFilter translates a DocumentQuery into a mongo filter.
func (s *MongoStore) BuildFilter(query interfaces.DocumentQuery) bson.M {
	filter := bson.M{"_id": bson.M{"$gt": query.After}}
	if isAny(query.PostType) {
		if len(s.filter.ExcludedTypes) > 0 {
			filter["post_type"] = bson.M{"$nin": s.filter.ExcludedTypes}
		}
	} else {
		filter["post_type"] = strings.TrimSpace(query.PostType)
	}
	if isAny(query.Status) {
		if len(s.filter.ExcludedStatuses) > 0 {
			filter["status"] = bson.M{"$nin": s.filter.ExcludedStatuses}
		}
	} else {
		filter["status"] = strings.TrimSpace(query.Status)
	}
	if query.Contains != "" {
		filter["content"] = bson.M{"$regex": regexp.QuoteMeta(query.Contains)}
	}
	return filter
}

// FetchIDs returns matching ids in ascending order.
func (s *MongoStore) FetchIDs(ctx context.Context, query interfaces.DocumentQuery) ([]int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1}).
		SetLimit(int64(normalizeLimit(query.Limit)))

	cursor, err := s.collection.Find(ctx, s.BuildFilter(query), opts)
	if err != nil {
		return nil, fmt.Errorf("documents: mongo find: %w", err)
	}
	defer cursor.Close(ctx)

	type idOnly struct {
		ID int64 `bson:"_id"`
	}
	var ids []int64
	for cursor.Next(ctx) {
		var row idOnly
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("documents: mongo decode: %w", err)
		}
		ids = append(ids, row.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Fetch returns the document or interfaces.ErrDocumentNotFound.
func (s *MongoStore) Fetch(ctx context.Context, id int64) (*interfaces.Document, error) {
	var post mongoPost
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("documents: mongo fetch %d: %w", id, err)
	}
	doc := post.document()
	return &doc, nil
}

// Write sets the content field of the document.
func (s *MongoStore) Write(ctx context.Context, id int64, content string) error {
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"content": content}})
	if err != nil {
		return fmt.Errorf("documents: mongo write %d: %w", id, err)
	}
	if res != nil && res.MatchedCount == 0 {
		return fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
	}
	return nil
}

// Title returns the title field of the document.
func (s *MongoStore) Title(ctx context.Context, id int64) (string, error) {
	var post struct {
		Title string `bson:"title"`
	}
	opts := options.FindOne().SetProjection(bson.M{"title": 1})
	err := s.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
		}
		return "", fmt.Errorf("documents: mongo title %d: %w", id, err)
	}
	return post.Title, nil
}
