package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// AuthMiddleware handles static API key authentication
type AuthMiddleware struct {
	keys [][]byte
}

// NewAuthMiddleware creates auth middleware. With no keys every request passes.
func NewAuthMiddleware(keys []string) *AuthMiddleware {
	m := &AuthMiddleware{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			m.keys = append(m.keys, []byte(k))
		}
	}
	return m
}

// Enabled reports whether any API key is configured
func (m *AuthMiddleware) Enabled() bool {
	return len(m.keys) > 0
}

// Authenticate verifies the API key from the Authorization header
// ("Bearer <key>" or the raw key) or the X-API-Key header.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), anonymousCaller)))
			return
		}

		apiKey := extractAPIKey(r)
		if apiKey == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "provide Authorization header with Bearer token or X-API-Key header")
			return
		}

		if !m.valid(apiKey) {
			slog.Warn("invalid api key attempt", "key_prefix", maskKey(apiKey), "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "unauthorized", "the provided api key is not valid")
			return
		}

		caller := "key:" + maskKey(apiKey)
		slog.Debug("authenticated request", "caller", caller)

		next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), caller)))
	})
}

func (m *AuthMiddleware) valid(apiKey string) bool {
	candidate := []byte(apiKey)
	ok := false
	for _, k := range m.keys {
		if subtle.ConstantTimeCompare(k, candidate) == 1 {
			ok = true
		}
	}
	return ok
}

// extractAPIKey extracts API key from request headers
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// maskKey returns first 8 chars of key for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}
