package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

// KeyAuth returns a middleware that validates Bearer token authentication.
// Requests to paths in skipPaths bypass authentication.
func KeyAuth(apiKey string, skipPaths ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				WriteError(w, http.StatusUnauthorized,
					core.NewNotAuthorizedError("Missing or malformed Authorization header.", nil))
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				WriteError(w, http.StatusForbidden,
					core.NewNotAuthorizedError("Invalid API key.", nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
