package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/campusnav/apiserver/config"
)

const mongoConnectTimeout = 10 * time.Second

// Mongo is a Database backed by MongoDB. Primary keys are ObjectIDs,
// exposed to callers as 24-character hex strings.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects, verifies the connection and ensures the unique
// indexes listed in UniqueIndexes exist.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	m := &Mongo{client: client, db: client.Database(cfg.DBName)}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	for collection, fields := range UniqueIndexes {
		for _, field := range fields {
			opts := options.Index().SetUnique(true).SetSparse(true)
			if field == "email" {
				opts.SetCollation(&options.Collation{Locale: "en", Strength: 2})
			}
			_, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
				Keys:    bson.D{{Key: field, Value: 1}},
				Options: opts,
			})
			if err != nil {
				return fmt.Errorf("create index %s.%s: %w", collection, field, err)
			}
		}
	}
	return nil
}

func (m *Mongo) Collection(name string) Collection {
	return &mongoCollection{coll: m.db.Collection(name)}
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

func (c *mongoCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	query, ok := mongoFilter(filter)
	if !ok {
		return nil, ErrNotFound
	}
	var raw bson.M
	if err := c.coll.FindOne(ctx, query).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return normalizeDocument(raw), nil
}

func (c *mongoCollection) Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error) {
	docs := make([]Document, 0)
	query, ok := mongoFilter(filter)
	if !ok {
		return docs, nil
	}

	findOpts := options.Find()
	if opts.SortField != "" {
		direction := 1
		if opts.SortDesc {
			direction = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.SortField, Value: direction}})
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(int64(opts.Skip))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := c.coll.Find(ctx, query, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		docs = append(docs, normalizeDocument(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	stored := bson.M{}
	for k, v := range doc {
		stored[k] = v
	}
	id := bson.NewObjectID()
	stored[IDField] = id

	if _, err := c.coll.InsertOne(ctx, stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	return id.Hex(), nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter Filter, update Update) (Document, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	query, ok := mongoFilter(filter)
	if !ok {
		return nil, ErrNotFound
	}

	change := bson.D{}
	if len(update.Set) > 0 {
		change = append(change, bson.E{Key: "$set", Value: bson.M(update.Set)})
	}
	if len(update.Inc) > 0 {
		inc := bson.M{}
		for k, v := range update.Inc {
			inc[k] = v
		}
		change = append(change, bson.E{Key: "$inc", Value: inc})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	if err := c.coll.FindOneAndUpdate(ctx, query, change, opts).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return normalizeDocument(raw), nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter Filter) error {
	query, ok := mongoFilter(filter)
	if !ok {
		return ErrNotFound
	}
	result, err := c.coll.DeleteOne(ctx, query)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// mongoFilter translates filter into a query document. It returns false
// when the filter can never match, e.g. an _id that is not an ObjectID.
func mongoFilter(filter Filter) (bson.D, bool) {
	clauses := bson.A{}
	for _, cond := range filter {
		value := cond.Value
		if cond.Field == IDField {
			hex, _ := value.(string)
			oid, err := bson.ObjectIDFromHex(hex)
			if err != nil {
				if cond.Op == OpNe {
					continue
				}
				return nil, false
			}
			value = oid
		}

		var predicate any
		switch cond.Op {
		case OpEq:
			predicate = value
		case OpNe:
			predicate = bson.D{{Key: "$ne", Value: value}}
		case OpGte:
			predicate = bson.D{{Key: "$gte", Value: value}}
		case OpEqFold:
			predicate = bson.D{
				{Key: "$regex", Value: "^" + regexp.QuoteMeta(fmt.Sprint(value)) + "$"},
				{Key: "$options", Value: "i"},
			}
		case OpContainsFold:
			predicate = bson.D{
				{Key: "$regex", Value: regexp.QuoteMeta(fmt.Sprint(value))},
				{Key: "$options", Value: "i"},
			}
		default:
			return nil, false
		}
		clauses = append(clauses, bson.D{{Key: cond.Field, Value: predicate}})
	}

	switch len(clauses) {
	case 0:
		return bson.D{}, true
	case 1:
		return clauses[0].(bson.D), true
	default:
		return bson.D{{Key: "$and", Value: clauses}}, true
	}
}

func normalizeDocument(raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		doc[k] = normalize(v)
	}
	return doc
}

// normalize converts driver types into the plain values Document promises.
func normalize(v any) any {
	switch typed := v.(type) {
	case bson.ObjectID:
		return typed.Hex()
	case bson.DateTime:
		return typed.Time().UTC()
	case int32:
		return int64(typed)
	case int:
		return int64(typed)
	case bson.M:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = normalize(item)
		}
		return out
	case map[string]any:
		return normalize(bson.M(typed))
	case []any:
		return normalize(bson.A(typed))
	case bson.D:
		out := make(map[string]any, len(typed))
		for _, elem := range typed {
			out[elem.Key] = normalize(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
