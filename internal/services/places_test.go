package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campusnav/apiserver/internal/store"
)

func seedPlaces(t *testing.T) *PlaceService {
	t.Helper()
	db := store.NewMemory()
	ctx := context.Background()
	seed := map[string][]store.Document{
		store.CollectionCoordinates: {
			{"buildingId": "B-1", "name": "main library", "lat": -26.19, "lng": 28.03},
		},
		store.CollectionLinks: {
			{"name": "timetable", "url": "https://example.edu/timetable"},
		},
		store.CollectionRoutes: {
			{"name": "Library to Great Hall", "steps": []any{"exit north", "turn left"}},
		},
	}
	for name, docs := range seed {
		for _, doc := range docs {
			if _, err := db.Collection(name).InsertOne(ctx, doc); err != nil {
				t.Fatalf("seed %s: %v", name, err)
			}
		}
	}
	return NewPlaceService(db)
}

func TestCoordinatesLookups(t *testing.T) {
	svc := seedPlaces(t)
	ctx := context.Background()

	doc, err := svc.CoordinatesByBuilding(ctx, "B-1")
	if err != nil || doc["name"] != "main library" {
		t.Fatalf("CoordinatesByBuilding: %v, %v", doc, err)
	}
	if _, err := svc.CoordinatesByBuilding(ctx, "b-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected exact buildingId match, got %v", err)
	}

	doc, err = svc.CoordinatesByName(ctx, "  Main   LIBRARY ")
	if err != nil || doc["buildingId"] != "B-1" {
		t.Fatalf("CoordinatesByName: %v, %v", doc, err)
	}
	if _, err := svc.CoordinatesByName(ctx, "library"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected whole-name match, got %v", err)
	}

	all, err := svc.ListCoordinates(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListCoordinates: %v, %v", all, err)
	}
}

func TestLinks(t *testing.T) {
	svc := seedPlaces(t)
	ctx := context.Background()

	doc, err := svc.LinkByName(ctx, "timetable")
	if err != nil || doc["url"] != "https://example.edu/timetable" {
		t.Fatalf("LinkByName: %v, %v", doc, err)
	}
	if _, err := svc.LinkByName(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	links, err := svc.ListLinks(ctx)
	if err != nil || len(links) != 1 {
		t.Fatalf("ListLinks: %v, %v", links, err)
	}
}

func TestRoutes(t *testing.T) {
	svc := seedPlaces(t)
	ctx := context.Background()

	doc, err := svc.RouteMatching(ctx, "great")
	if err != nil || doc["name"] != "Library to Great Hall" {
		t.Fatalf("RouteMatching: %v, %v", doc, err)
	}
	if _, err := svc.RouteMatching(ctx, "gym"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.RouteMatching(ctx, " "); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	if _, err := svc.RouteByName(ctx, "library to great hall"); err != nil {
		t.Fatalf("RouteByName error: %v", err)
	}
	if _, err := svc.RouteByName(ctx, "great"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for partial name, got %v", err)
	}
	if _, err := svc.RouteByName(ctx, ""); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNormalizePlaceName(t *testing.T) {
	if got := NormalizePlaceName("  Great\tHALL  West "); got != "great hall west" {
		t.Fatalf("unexpected normalized name %q", got)
	}
}
