package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/campusnav/apiserver/types"
)

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/auth/register", registerBody("u1@campus.edu", "11"), nil)
	expectStatus(t, rec, http.StatusCreated)
	first := decodeBody[AuthResponse](t, rec).User

	body := registerBody("u2@campus.edu", "12")
	body["isVerified"] = false
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/register", body, nil), http.StatusCreated)

	rec = env.do(t, http.MethodGet, "/api/users", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("user list leaks password hashes")
	}
	if got := decodeBody[[]types.Account](t, rec); len(got) != 2 {
		t.Fatalf("expected two users, got %d", len(got))
	}

	rec = env.do(t, http.MethodGet, "/api/users?isVerified=false", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[[]types.Account](t, rec); len(got) != 1 || got[0].Email != "u2@campus.edu" {
		t.Fatalf("unexpected filtered users %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/users?email=U1@CAMPUS.EDU&limit=5", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[[]types.Account](t, rec); len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("unexpected email filter result %+v", got)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/users?isVerified=maybe", nil, nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/api/users?page=0", nil, nil), http.StatusBadRequest)

	expectStatus(t, env.do(t, http.MethodGet, "/api/users/"+first.ID, nil, nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/api/users/bogus", nil, nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/api/users/00000000-0000-0000-0000-000000000000", nil, nil), http.StatusNotFound)
}
