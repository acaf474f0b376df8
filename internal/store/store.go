package store

import (
	"context"
	"strings"
)

// IDField is the document key holding the store-assigned primary key.
const IDField = "_id"

// Collection names.
const (
	CollectionUsers       = "users"
	CollectionAdmins      = "admins"
	CollectionBuildings   = "buildings"
	CollectionCoordinates = "coordinates"
	CollectionLinks       = "links"
	CollectionRoutes      = "routes"
)

// Document is a schemaless record. Values are plain Go values: string,
// bool, float64/int64, time.Time, nil, []any and map[string]any. The
// primary key is always exposed as a string under IDField.
type Document map[string]any

// ID returns the primary key of the document, if any.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Op is a predicate operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpGte
	// OpEqFold is a case-insensitive exact string match.
	OpEqFold
	// OpContainsFold is a case-insensitive substring match.
	OpContainsFold
)

// Condition is a single field predicate.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. An empty filter matches everything.
type Filter []Condition

func Eq(field string, value any) Condition { return Condition{Field: field, Op: OpEq, Value: value} }
func Ne(field string, value any) Condition { return Condition{Field: field, Op: OpNe, Value: value} }
func Gte(field string, value any) Condition {
	return Condition{Field: field, Op: OpGte, Value: value}
}
func EqFold(field, value string) Condition {
	return Condition{Field: field, Op: OpEqFold, Value: value}
}
func ContainsFold(field, value string) Condition {
	return Condition{Field: field, Op: OpContainsFold, Value: value}
}

// ByID is shorthand for a primary key filter.
func ByID(id string) Filter { return Filter{Eq(IDField, id)} }

// Update describes an atomic modification. Set assigns fields (a nil value
// stores null); Inc adds to numeric fields, treating a missing field as 0.
type Update struct {
	Set map[string]any
	Inc map[string]int64
}

// Validate rejects empty updates and updates that touch the primary key.
func (u Update) Validate() error {
	if len(u.Set) == 0 && len(u.Inc) == 0 {
		return ErrInvalidUpdate
	}
	for field := range u.Set {
		if field == IDField || strings.TrimSpace(field) == "" {
			return ErrInvalidUpdate
		}
	}
	for field := range u.Inc {
		if field == IDField || strings.TrimSpace(field) == "" {
			return ErrInvalidUpdate
		}
	}
	return nil
}

// FindOptions controls ordering and paging for Find.
type FindOptions struct {
	SortField string
	SortDesc  bool
	Skip      int
	Limit     int
}

// Collection is the record store contract every backend implements.
type Collection interface {
	// FindOne returns the first matching document or ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (Document, error)
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error)
	// InsertOne stores doc under a fresh primary key and returns the key.
	// Any IDField present in doc is ignored.
	InsertOne(ctx context.Context, doc Document) (string, error)
	// UpdateOne atomically applies update to the first matching document
	// and returns the updated document, or ErrNotFound.
	UpdateOne(ctx context.Context, filter Filter, update Update) (Document, error)
	// DeleteOne removes the first matching document or returns ErrNotFound.
	DeleteOne(ctx context.Context, filter Filter) error
	// ValidID reports whether id is syntactically a primary key for this backend.
	ValidID(id string) bool
}

// Database hands out collections and owns the underlying connection.
type Database interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// UniqueIndexes lists fields that must be unique per collection. Backends
// enforce them and report violations as ErrDuplicate.
var UniqueIndexes = map[string][]string{
	CollectionUsers: {"email", "studentNumber"},
}
