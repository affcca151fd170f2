// Package auth guards the HTTP surfaces with basic or API key authentication.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/sha1n/mcp-doc-agent/internal/config"
)

// Middleware wraps an http.Handler.
type Middleware = func(http.Handler) http.Handler

// publicPaths bypass authentication entirely.
var publicPaths = map[string]bool{
	"/health": true,
}

// publicPrefixes bypass authentication; signed file URLs carry their own capability.
var publicPrefixes = []string{
	"/files/",
}

// IsPublicPath reports whether the request path skips authentication.
func IsPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// NewMiddleware creates a new authentication middleware based on settings
func NewMiddleware(settings config.AuthSettings) (Middleware, error) {
	switch settings.Type {
	case config.AuthTypeNone, "":
		return func(next http.Handler) http.Handler { return next }, nil
	case config.AuthTypeBasic:
		if settings.Basic.Username == "" || settings.Basic.Password == "" {
			return nil, fmt.Errorf("basic auth requires non-empty username and password")
		}
		return guard(basicAuth(settings.Basic)), nil
	case config.AuthTypeAPIKey:
		if len(settings.APIKeys) == 0 {
			return nil, fmt.Errorf("apikey auth requires at least one API key")
		}
		return guard(apiKey(settings.APIKeys)), nil
	default:
		return nil, fmt.Errorf("unknown auth type: %s", settings.Type)
	}
}

// guard applies check to every request outside the public paths.
func guard(check func(w http.ResponseWriter, r *http.Request) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path) || check(w, r) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
}

func basicAuth(creds config.BasicAuthSettings) func(http.ResponseWriter, *http.Request) bool {
	return func(w http.ResponseWriter, r *http.Request) bool {
		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(creds.Username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(creds.Password)) == 1
		if ok && userMatch && passMatch {
			return true
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="doc-agent"`)
		return false
	}
}

func apiKey(keys []string) func(http.ResponseWriter, *http.Request) bool {
	return func(_ http.ResponseWriter, r *http.Request) bool {
		key := requestKey(r)
		if key == "" {
			return false
		}
		valid := false
		for _, k := range keys {
			// No early exit so timing does not reveal which key matched.
			if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
				valid = true
			}
		}
		return valid
	}
}

// requestKey reads the X-API-Key header, falling back to a bearer token.
func requestKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
