package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack-server/src/auth"
	"fintrack-server/src/models"
)

func newTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tokens, err := auth.NewTokens("middleware-secret-0123", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(tokens.Close)
	return tokens
}

func TestJWTAuthMiddleware(t *testing.T) {
	t.Parallel()
	tokens := newTokens(t)
	valid, _ := tokens.Issue(models.User{ID: "u1", Email: "ada@example.com"})
	revoked, _ := tokens.Issue(models.User{ID: "u1"})
	claims, _ := tokens.Parse(revoked)
	if err := tokens.Revoke(claims); err != nil {
		t.Fatal(err)
	}

	var seen string
	h := JWTAuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
		if tt.want == http.StatusOK && seen != "u1" {
			t.Errorf("%s: user in context = %q", tt.name, seen)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()
	h := CORSMiddleware([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want passthrough", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}
}

func TestReadOnlyMiddleware(t *testing.T) {
	t.Parallel()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		enabled bool
		method  string
		path    string
		want    int
	}{
		{true, http.MethodGet, "/api/transactions", http.StatusOK},
		{true, http.MethodPost, "/api/login", http.StatusOK},
		{true, http.MethodPost, "/api/logout", http.StatusOK},
		{true, http.MethodPost, "/api/register", http.StatusOK},
		{true, http.MethodPost, "/api/users", http.StatusOK},
		{true, http.MethodPut, "/api/users", http.StatusForbidden},
		{true, http.MethodPost, "/api/transactions", http.StatusForbidden},
		{true, http.MethodDelete, "/api/budgets/b1", http.StatusForbidden},
		{false, http.MethodDelete, "/api/budgets/b1", http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		ReadOnlyMiddleware(tt.enabled)(next).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%v %s %s: status = %d, want %d", tt.enabled, tt.method, tt.path, rec.Code, tt.want)
		}
	}
}
