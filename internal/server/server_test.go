package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/config"
)

func testConfig() config.Config {
	return config.Config{
		StoreDriver: config.StoreDriverMemory,
		Auth: config.AuthConfig{
			MaxLoginAttempts: 5,
			HashCost:         4,
			JWTSecret:        "secret",
		},
		HTTP: config.HTTPConfig{
			AllowedOrigins: []string{"*"},
			AuthRateLimit:  2,
		},
	}
}

func TestNewRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without JWT secret")
	}
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.StoreDriver = "sqlite"
	if _, err := OpenStore(context.Background(), cfg); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestRoutesAreMounted(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer srv.Shutdown(context.Background())

	cases := map[string]int{
		"/healthz":                 http.StatusOK,
		"/api/health":              http.StatusOK,
		"/api/buildings":           http.StatusOK,
		"/api/coordinates":         http.StatusOK,
		"/api/links":               http.StatusOK,
		"/api/users":               http.StatusOK,
		"/api/admins":              http.StatusOK,
		"/api/auth/me":             http.StatusUnauthorized,
		"/api/upload/images/x.png": http.StatusServiceUnavailable,
		"/api/unknown":             http.StatusNotFound,
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("GET %s: expected %d, got %d", path, want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "campusnav_http_request_duration_seconds") {
		t.Fatalf("expected request histogram on /metrics, got %d", rec.Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer srv.Shutdown(context.Background())

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"","password":""}`))
		req.RemoteAddr = "203.0.113.9:5000"
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", last)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodOptions, "/api/buildings", nil)
	req.Header.Set("Origin", "https://app.example.edu")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}
