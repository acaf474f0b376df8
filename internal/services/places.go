package services

import (
	"context"
	"strings"

	"github.com/campusnav/apiserver/internal/store"
)

// PlaceService serves the read-only navigation collections: building
// coordinates, external links and walking routes.
type PlaceService struct {
	coordinates store.Collection
	links       store.Collection
	routes      store.Collection
}

func NewPlaceService(db store.Database) *PlaceService {
	return &PlaceService{
		coordinates: db.Collection(store.CollectionCoordinates),
		links:       db.Collection(store.CollectionLinks),
		routes:      db.Collection(store.CollectionRoutes),
	}
}

// CoordinatesByBuilding matches buildingId exactly.
func (s *PlaceService) CoordinatesByBuilding(ctx context.Context, buildingID string) (store.Document, error) {
	return findOne(ctx, s.coordinates, store.Filter{store.Eq("buildingId", buildingID)})
}

// CoordinatesByName normalizes name and matches it case-insensitively.
func (s *PlaceService) CoordinatesByName(ctx context.Context, name string) (store.Document, error) {
	return findOne(ctx, s.coordinates, store.Filter{store.EqFold("name", NormalizePlaceName(name))})
}

func (s *PlaceService) ListCoordinates(ctx context.Context) ([]store.Document, error) {
	return findAll(ctx, s.coordinates)
}

func (s *PlaceService) LinkByName(ctx context.Context, name string) (store.Document, error) {
	return findOne(ctx, s.links, store.Filter{store.Eq("name", name)})
}

func (s *PlaceService) ListLinks(ctx context.Context) ([]store.Document, error) {
	return findAll(ctx, s.links)
}

// RouteMatching returns the first route whose name contains fragment,
// ignoring case.
func (s *PlaceService) RouteMatching(ctx context.Context, fragment string) (store.Document, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, invalidRequest("route name is required")
	}
	return findOne(ctx, s.routes, store.Filter{store.ContainsFold("name", fragment)})
}

// RouteByName matches the whole name, ignoring case.
func (s *PlaceService) RouteByName(ctx context.Context, name string) (store.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidRequest("query parameter 'name' is required")
	}
	return findOne(ctx, s.routes, store.Filter{store.EqFold("name", strings.TrimSpace(name))})
}

// NormalizePlaceName lowercases, trims and collapses inner whitespace.
func NormalizePlaceName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func findOne(ctx context.Context, coll store.Collection, filter store.Filter) (store.Document, error) {
	doc, err := coll.FindOne(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return doc, nil
}

func findAll(ctx context.Context, coll store.Collection) ([]store.Document, error) {
	docs, err := coll.Find(ctx, store.Filter{}, store.FindOptions{})
	if err != nil {
		return nil, storeError(err)
	}
	return docs, nil
}
