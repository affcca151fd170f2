package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sha1n/mcp-doc-agent/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(t *testing.T, settings config.AuthSettings, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	mw, err := NewMiddleware(settings)
	if err != nil {
		t.Fatalf("NewMiddleware failed: %v", err)
	}
	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	return rec
}

func TestNewMiddleware_None(t *testing.T) {
	for _, typ := range []string{config.AuthTypeNone, ""} {
		rec := serve(t, config.AuthSettings{Type: typ}, httptest.NewRequest(http.MethodPost, "/v1/ask", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("type %q: expected 200, got %d", typ, rec.Code)
		}
	}
}

func TestNewMiddleware_BasicAuth(t *testing.T) {
	settings := config.AuthSettings{
		Type:  config.AuthTypeBasic,
		Basic: config.BasicAuthSettings{Username: "admin", Password: "secret"},
	}

	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		wantStatus int
	}{
		{"valid", "admin", "secret", true, http.StatusOK},
		{"wrong password", "admin", "nope", true, http.StatusUnauthorized},
		{"wrong user", "root", "secret", true, http.StatusUnauthorized},
		{"no credentials", "", "", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := serve(t, settings, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("Expected WWW-Authenticate challenge")
			}
		})
	}
}

func TestNewMiddleware_APIKey(t *testing.T) {
	settings := config.AuthSettings{Type: config.AuthTypeAPIKey, APIKeys: []string{"key-1", "key-2"}}

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"x-api-key", "X-API-Key", "key-2", http.StatusOK},
		{"bearer token", "Authorization", "Bearer key-1", http.StatusOK},
		{"invalid key", "X-API-Key", "key-3", http.StatusUnauthorized},
		{"basic scheme is not a key", "Authorization", "Basic a2V5LTE=", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := serve(t, settings, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestNewMiddleware_InvalidSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings config.AuthSettings
	}{
		{"basic without password", config.AuthSettings{Type: config.AuthTypeBasic, Basic: config.BasicAuthSettings{Username: "u"}}},
		{"apikey without keys", config.AuthSettings{Type: config.AuthTypeAPIKey}},
		{"unknown type", config.AuthSettings{Type: "oauth"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMiddleware(tt.settings); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestPublicPathsBypassAuth(t *testing.T) {
	settings := config.AuthSettings{Type: config.AuthTypeAPIKey, APIKeys: []string{"k"}}

	for _, path := range []string{"/health", "/files/docs/manual.pdf"} {
		rec := serve(t, settings, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200 without credentials, got %d", path, rec.Code)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/health/", false},
		{"/files/a.pdf", true},
		{"/files", false},
		{"/sse", false},
		{"/v1/ask", false},
		{"/", false},
	}
	for _, tt := range tests {
		if got := IsPublicPath(tt.path); got != tt.want {
			t.Errorf("IsPublicPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
