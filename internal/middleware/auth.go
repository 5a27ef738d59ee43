package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"signage/internal/logging"
)

// AuthConfig controls admin token verification. Exactly one of Token or
// TokenHash should be set; TokenHash takes precedence and is a bcrypt
// hash of the expected token.
type AuthConfig struct {
	Token     string
	TokenHash string
}

// Enabled reports whether any credential is configured.
func (c AuthConfig) Enabled() bool {
	return c.Token != "" || c.TokenHash != ""
}

// Verify checks a presented token against the configured credential.
func (c AuthConfig) Verify(presented string) bool {
	if presented == "" {
		return false
	}
	if c.TokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(c.TokenHash), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(c.Token), []byte(presented)) == 1
}

// extractToken pulls the admin token from the X-Admin-Token header or a
// Bearer authorization header.
func extractToken(r *http.Request) string {
	if token := r.Header.Get("X-Admin-Token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// RequireAuth returns middleware that rejects requests without a valid
// admin token. With no credential configured it warns once per process
// start and allows everything through, matching a LAN-only deployment.
func RequireAuth(config AuthConfig) func(http.Handler) http.Handler {
	if !config.Enabled() {
		logging.Warn("No admin token configured; write endpoints are unprotected")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			if !config.Verify(extractToken(r)) {
				logging.Warn("Rejected unauthorized %s %s from %s", r.Method, r.URL.Path, getClientIP(r))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
