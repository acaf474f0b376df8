package store

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestNormalizeConvertsDriverTypes(t *testing.T) {
	oid := bson.NewObjectID()
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	doc := normalizeDocument(bson.M{
		IDField:  oid,
		"when":   bson.NewDateTimeFromTime(at),
		"count":  int32(7),
		"nested": bson.D{{Key: "k", Value: int32(1)}},
		"list":   bson.A{"a", int32(2)},
	})

	if doc.ID() != oid.Hex() {
		t.Fatalf("expected hex id %s, got %v", oid.Hex(), doc[IDField])
	}
	if got, ok := doc["when"].(time.Time); !ok || !got.Equal(at) {
		t.Fatalf("expected time %s, got %v", at, doc["when"])
	}
	if doc["count"] != int64(7) {
		t.Fatalf("expected int64 count, got %T", doc["count"])
	}
	nested, ok := doc["nested"].(map[string]any)
	if !ok || nested["k"] != int64(1) {
		t.Fatalf("unexpected nested value: %#v", doc["nested"])
	}
	list, ok := doc["list"].([]any)
	if !ok || len(list) != 2 || list[1] != int64(2) {
		t.Fatalf("unexpected list value: %#v", doc["list"])
	}
}

func TestMongoFilter(t *testing.T) {
	oid := bson.NewObjectID()

	query, ok := mongoFilter(Filter{Eq(IDField, oid.Hex())})
	if !ok {
		t.Fatalf("expected valid filter")
	}
	if len(query) != 1 || query[0].Key != IDField || query[0].Value != oid {
		t.Fatalf("unexpected id filter: %#v", query)
	}

	if _, ok := mongoFilter(Filter{Eq(IDField, "B-12")}); ok {
		t.Fatalf("expected non-ObjectID primary key to never match")
	}

	query, ok = mongoFilter(Filter{Eq("providedId", "B-12"), ContainsFold("name", "a.b")})
	if !ok || len(query) != 1 || query[0].Key != "$and" {
		t.Fatalf("expected $and conjunction, got %#v", query)
	}
	clauses := query[0].Value.(bson.A)
	regex := clauses[1].(bson.D)[0].Value.(bson.D)[0].Value
	if regex != `a\.b` {
		t.Fatalf("expected escaped regex, got %v", regex)
	}

	query, ok = mongoFilter(Filter{})
	if !ok || len(query) != 0 {
		t.Fatalf("expected empty filter, got %#v", query)
	}
}
