package handlers

import (
	"net/http"
	"testing"
)

func TestUploadWithoutStorage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/upload", map[string]string{"image": "iVBORw0KGgo="}, nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if got := decodeBody[ErrorResponse](t, rec); got.Code != codeStorageDisabled {
		t.Fatalf("unexpected body %+v", got)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/upload/images/a.png", nil, nil), http.StatusServiceUnavailable)
}

func TestUploadRejectsBadBody(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, http.MethodPost, "/api/upload", "{", nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPost, "/api/upload", map[string]string{"image": "%%%"}, nil), http.StatusBadRequest)
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query  string
		limit  int
		offset int
		ok     bool
		err    bool
	}{
		{"", 0, 0, false, false},
		{"page=2", defaultLimit, defaultLimit, true, false},
		{"page=3&limit=5", 5, 10, true, false},
		{"per_page=500", maxLimit, 0, true, false},
		{"page=-1", 0, 0, false, true},
		{"limit=x", 0, 0, false, true},
	}
	for _, tc := range cases {
		req, _ := http.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		limit, offset, ok, err := parsePagination(req)
		if (err != nil) != tc.err || limit != tc.limit || offset != tc.offset || ok != tc.ok {
			t.Fatalf("%q: got (%d, %d, %v, %v)", tc.query, limit, offset, ok, err)
		}
	}
}
