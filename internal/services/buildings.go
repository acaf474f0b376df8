package services

import (
	"context"

	"github.com/campusnav/apiserver/internal/store"
)

// BuildingService manages campus buildings. Buildings are schemaless
// documents addressed through the Resolver.
type BuildingService struct {
	coll     store.Collection
	resolver *Resolver
}

func NewBuildingService(db store.Database) *BuildingService {
	coll := db.Collection(store.CollectionBuildings)
	return &BuildingService{coll: coll, resolver: NewResolver(coll)}
}

func (s *BuildingService) List(ctx context.Context) ([]store.Document, error) {
	docs, err := s.coll.Find(ctx, store.Filter{}, store.FindOptions{})
	if err != nil {
		return nil, storeError(err)
	}
	return docs, nil
}

func (s *BuildingService) Get(ctx context.Context, rawID string) (store.Document, error) {
	return s.resolver.Resolve(ctx, rawID)
}

// Create stores building under a new primary key. A client supplied _id
// is ignored.
func (s *BuildingService) Create(ctx context.Context, building store.Document) (store.Document, error) {
	if len(building) == 0 {
		return nil, invalidRequest("building body is required")
	}
	delete(building, store.IDField)
	id, err := s.coll.InsertOne(ctx, building)
	if err != nil {
		return nil, storeError(err)
	}
	building[store.IDField] = id
	return building, nil
}

func (s *BuildingService) Update(ctx context.Context, rawID string, patch map[string]any) (store.Document, error) {
	return s.resolver.ResolveAndUpdate(ctx, rawID, patch)
}

func (s *BuildingService) Delete(ctx context.Context, rawID string) error {
	return s.resolver.ResolveAndDelete(ctx, rawID)
}
