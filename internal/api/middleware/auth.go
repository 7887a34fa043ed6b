package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

const apiKeyHeader = "X-Internal-API-Key"

// InternalAPIKey rejects requests whose X-Internal-API-Key header does not
// match the configured key. The service sits behind an internal gateway,
// so a single shared key is the whole auth story.
func InternalAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error_code": 2,
					"message":    "invalid or missing API key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
