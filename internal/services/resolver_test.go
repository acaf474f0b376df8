package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campusnav/apiserver/internal/store"
)

// countingCollection records every store call made through it.
type countingCollection struct {
	store.Collection
	calls int
	err   error
}

func (c *countingCollection) FindOne(ctx context.Context, filter store.Filter) (store.Document, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Collection.FindOne(ctx, filter)
}

func (c *countingCollection) UpdateOne(ctx context.Context, filter store.Filter, update store.Update) (store.Document, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Collection.UpdateOne(ctx, filter, update)
}

func (c *countingCollection) DeleteOne(ctx context.Context, filter store.Filter) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	return c.Collection.DeleteOne(ctx, filter)
}

func newBuildings(t *testing.T) (*countingCollection, *Resolver) {
	t.Helper()
	coll := &countingCollection{Collection: store.NewMemory().Collection(store.CollectionBuildings)}
	return coll, NewResolver(coll)
}

func insert(t *testing.T, coll store.Collection, doc store.Document) string {
	t.Helper()
	id, err := coll.InsertOne(context.Background(), doc)
	if err != nil {
		t.Fatalf("InsertOne error: %v", err)
	}
	return id
}

func TestResolveByPrimaryKeyAndAliases(t *testing.T) {
	coll, resolver := newBuildings(t)
	ctx := context.Background()
	libraryID := insert(t, coll, store.Document{"name": "Library", "providedId": "X1"})
	hallID := insert(t, coll, store.Document{"name": "Hall", "providedid": "X2"})

	cases := map[string]string{
		libraryID: "Library",
		"X1":      "Library",
		hallID:    "Hall",
		"X2":      "Hall",
	}
	for rawID, want := range cases {
		doc, err := resolver.Resolve(ctx, rawID)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", rawID, err)
		}
		if doc["name"] != want {
			t.Fatalf("Resolve(%q): expected %s, got %v", rawID, want, doc["name"])
		}
	}
}

func TestResolvePrimaryKeyTakesPrecedence(t *testing.T) {
	coll, resolver := newBuildings(t)
	ctx := context.Background()
	targetID := insert(t, coll, store.Document{"name": "Target"})
	insert(t, coll, store.Document{"name": "Impostor", "providedid": targetID})

	doc, err := resolver.Resolve(ctx, targetID)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if doc["name"] != "Target" {
		t.Fatalf("expected primary key match, got %v", doc["name"])
	}
}

func TestResolveSpellingOrder(t *testing.T) {
	coll, resolver := newBuildings(t)
	insert(t, coll, store.Document{"name": "Lower", "providedid": "B-7"})
	insert(t, coll, store.Document{"name": "Camel", "providedId": "B-7"})

	doc, err := resolver.Resolve(context.Background(), "B-7")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if doc["name"] != "Camel" {
		t.Fatalf("expected providedId to win, got %v", doc["name"])
	}
}

func TestResolveSkipsMalformedPrimaryKey(t *testing.T) {
	coll, resolver := newBuildings(t)
	if got := len(resolver.Candidates("not-a-uuid")); got != 2 {
		t.Fatalf("expected 2 candidates, got %d", got)
	}

	if _, err := resolver.Resolve(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if coll.calls != 2 {
		t.Fatalf("expected 2 store calls, got %d", coll.calls)
	}
}

func TestResolveEmptyIDMakesNoStoreCalls(t *testing.T) {
	coll, resolver := newBuildings(t)
	ctx := context.Background()

	if _, err := resolver.Resolve(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := resolver.ResolveAndUpdate(ctx, "", map[string]any{"a": 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := resolver.ResolveAndDelete(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if coll.calls != 0 {
		t.Fatalf("expected no store calls, got %d", coll.calls)
	}
}

func TestResolveAndUpdate(t *testing.T) {
	coll, resolver := newBuildings(t)
	ctx := context.Background()
	id := insert(t, coll, store.Document{"name": "Old", "providedid": "B-9"})

	doc, err := resolver.ResolveAndUpdate(ctx, "B-9", map[string]any{"name": "New"})
	if err != nil {
		t.Fatalf("ResolveAndUpdate error: %v", err)
	}
	if doc["name"] != "New" || doc.ID() != id {
		t.Fatalf("unexpected updated document: %v", doc)
	}

	if _, err := resolver.ResolveAndUpdate(ctx, "B-404", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveAndUpdateRejectsInvalidPatch(t *testing.T) {
	coll, resolver := newBuildings(t)
	id := insert(t, coll, store.Document{"name": "Old"})
	coll.calls = 0

	for _, patch := range []map[string]any{nil, {}, {store.IDField: "other"}} {
		if _, err := resolver.ResolveAndUpdate(context.Background(), id, patch); !errors.Is(err, ErrInvalidUpdate) {
			t.Fatalf("expected ErrInvalidUpdate for %v, got %v", patch, err)
		}
	}
	if coll.calls != 0 {
		t.Fatalf("expected validation before store access, got %d calls", coll.calls)
	}
}

func TestResolveAndDelete(t *testing.T) {
	coll, resolver := newBuildings(t)
	ctx := context.Background()
	insert(t, coll, store.Document{"name": "Gone", "providedId": "B-1"})

	if err := resolver.ResolveAndDelete(ctx, "B-1"); err != nil {
		t.Fatalf("ResolveAndDelete error: %v", err)
	}
	if err := resolver.ResolveAndDelete(ctx, "B-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveStoreFailureIsNotRetried(t *testing.T) {
	coll, resolver := newBuildings(t)
	coll.err = errors.New("socket closed")

	_, err := resolver.Resolve(context.Background(), "B-1")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if coll.calls != 1 {
		t.Fatalf("expected a single store call, got %d", coll.calls)
	}
}

func TestResolverCustomAliases(t *testing.T) {
	coll := store.NewMemory().Collection(store.CollectionBuildings)
	insert(t, coll, store.Document{"code": "ENG"})

	doc, err := NewResolver(coll, "code").Resolve(context.Background(), "ENG")
	if err != nil || doc["code"] != "ENG" {
		t.Fatalf("expected match on custom alias, got %v, %v", doc, err)
	}
}
