package handlers

import (
	"net/http"
	"testing"

	"github.com/campusnav/apiserver/internal/store"
)

func TestBuildingRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/buildings", map[string]any{"name": "Great Hall", "providedId": "GH"}, nil)
	expectStatus(t, rec, http.StatusCreated)
	created := decodeBody[map[string]any](t, rec)
	id, _ := created[store.IDField].(string)
	if id == "" {
		t.Fatalf("expected assigned _id, got %v", created)
	}

	for _, path := range []string{"/api/buildings/" + id, "/api/buildings/GH", "/api/buildings?id=GH"} {
		rec = env.do(t, http.MethodGet, path, nil, nil)
		expectStatus(t, rec, http.StatusOK)
		if got := decodeBody[map[string]any](t, rec); got["name"] != "Great Hall" {
			t.Fatalf("GET %s: unexpected body %v", path, got)
		}
	}

	rec = env.do(t, http.MethodPut, "/api/buildings?id=GH", map[string]any{"name": "Great Hall West"}, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[map[string]any](t, rec); got["name"] != "Great Hall West" {
		t.Fatalf("unexpected update body %v", got)
	}

	rec = env.do(t, http.MethodPut, "/api/buildings/GH", map[string]any{store.IDField: "x"}, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodGet, "/api/buildings", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[[]map[string]any](t, rec); len(got) != 1 {
		t.Fatalf("expected one building, got %v", got)
	}

	rec = env.do(t, http.MethodDelete, "/api/buildings/GH", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	deleted := decodeBody[BuildingDeletedResponse](t, rec)
	if deleted.Message != "Building deleted successfully" || deleted.DeletedID != "GH" {
		t.Fatalf("unexpected delete body %+v", deleted)
	}

	rec = env.do(t, http.MethodGet, "/api/buildings/GH", nil, nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := decodeBody[BuildingNotFoundResponse](t, rec); got.ProvidedID != "GH" || got.Code != codeNotFound {
		t.Fatalf("unexpected not found body %+v", got)
	}
}

func TestBuildingIDFromBody(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, store.CollectionBuildings, store.Document{"name": "Library", "providedId": "LIB"})

	rec := env.do(t, http.MethodPut, "/api/buildings", map[string]any{"id": "LIB", "name": "Main Library"}, nil)
	expectStatus(t, rec, http.StatusOK)
	updated := decodeBody[map[string]any](t, rec)
	if updated["name"] != "Main Library" {
		t.Fatalf("unexpected update body %v", updated)
	}
	if _, ok := updated["id"]; ok {
		t.Fatalf("locator id stored on the building: %v", updated)
	}

	rec = env.do(t, http.MethodDelete, "/api/buildings", map[string]any{"id": "LIB"}, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[BuildingDeletedResponse](t, rec); got.DeletedID != "LIB" {
		t.Fatalf("unexpected delete body %+v", got)
	}
}

func TestBuildingIDIsNotTrimmed(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, store.CollectionBuildings, store.Document{"name": "Library", "providedId": "LIB"})

	rec := env.do(t, http.MethodGet, "/api/buildings?id=%20LIB%20", nil, nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := decodeBody[BuildingNotFoundResponse](t, rec); got.ProvidedID != " LIB " {
		t.Fatalf("expected verbatim providedId, got %+v", got)
	}
}

func TestBuildingMissingID(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, http.MethodDelete, "/api/buildings", nil, nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPut, "/api/buildings", map[string]any{"name": "x"}, nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/api/buildings?id=", nil, nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodPost, "/api/buildings", map[string]any{}, nil), http.StatusBadRequest)
}
