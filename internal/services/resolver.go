package services

import (
	"context"
	"errors"

	"github.com/campusnav/apiserver/internal/store"
)

// IdentifierAliases are the field names that have held the externally
// supplied identifier over time, in lookup order.
var IdentifierAliases = []string{"providedId", "providedid"}

// Resolver finds an entity by a raw identifier. Candidates are tried in
// order: the primary key when rawID is well formed for the backend, then
// each alias field. The first match wins.
type Resolver struct {
	coll    store.Collection
	aliases []string
}

// NewResolver uses IdentifierAliases when no aliases are given.
func NewResolver(coll store.Collection, aliases ...string) *Resolver {
	if len(aliases) == 0 {
		aliases = IdentifierAliases
	}
	return &Resolver{coll: coll, aliases: aliases}
}

// Candidates returns the lookup predicates for rawID in priority order.
func (r *Resolver) Candidates(rawID string) []store.Filter {
	if rawID == "" {
		return nil
	}
	candidates := make([]store.Filter, 0, len(r.aliases)+1)
	if r.coll.ValidID(rawID) {
		candidates = append(candidates, store.ByID(rawID))
	}
	for _, field := range r.aliases {
		candidates = append(candidates, store.Filter{store.Eq(field, rawID)})
	}
	return candidates
}

func (r *Resolver) Resolve(ctx context.Context, rawID string) (store.Document, error) {
	for _, filter := range r.Candidates(rawID) {
		doc, err := r.coll.FindOne(ctx, filter)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, storeError(err)
		}
	}
	return nil, ErrNotFound
}

// ResolveAndUpdate applies patch to the first candidate that matches,
// atomically per candidate, and returns the updated entity.
func (r *Resolver) ResolveAndUpdate(ctx context.Context, rawID string, patch map[string]any) (store.Document, error) {
	candidates := r.Candidates(rawID)
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}
	update := store.Update{Set: patch}
	if err := update.Validate(); err != nil {
		return nil, ErrInvalidUpdate
	}
	for _, filter := range candidates {
		doc, err := r.coll.UpdateOne(ctx, filter, update)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, storeError(err)
		}
	}
	return nil, ErrNotFound
}

// ResolveAndDelete removes the first candidate that matches.
func (r *Resolver) ResolveAndDelete(ctx context.Context, rawID string) error {
	for _, filter := range r.Candidates(rawID) {
		err := r.coll.DeleteOne(ctx, filter)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return storeError(err)
		}
	}
	return ErrNotFound
}
