package chi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// authExempt paths are reachable without credentials.
var authExempt = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// BearerAuthMiddleware rejects requests without a configured API key.
// With no keys configured the API is open (local development).
func BearerAuthMiddleware(apiKeys []string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(apiKeys) == 0 || authExempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok || !keyMatches(token, apiKeys) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(errorResponse{
					Code:    "unauthorized",
					Message: "missing or invalid API key",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func keyMatches(token string, apiKeys []string) bool {
	for _, key := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1 {
			return true
		}
	}
	return false
}
